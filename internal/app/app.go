package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/ccastromar/movie-nlu/internal/api"
	"github.com/ccastromar/movie-nlu/internal/config"
	"github.com/ccastromar/movie-nlu/internal/database"
	"github.com/ccastromar/movie-nlu/internal/guard"
	"github.com/ccastromar/movie-nlu/internal/linker"
	"github.com/ccastromar/movie-nlu/internal/logx"
	"github.com/ccastromar/movie-nlu/internal/nlu"
	"github.com/ccastromar/movie-nlu/internal/runtime"
	"github.com/ccastromar/movie-nlu/internal/session"
	"github.com/ccastromar/movie-nlu/internal/tracker"
	"github.com/ccastromar/movie-nlu/internal/ui"
)

const Version = "0.3.0"

type App struct {
	env      *config.EnvVars
	cfg      *config.Config
	nlu      *nlu.Recognizer
	linker   *linker.Linker
	sessions session.Store
	// set when sessions live in process
	janitor *session.MemoryStore
	ui      *ui.UIStore
	http    *HTTPServer
}

func New(ctx context.Context, env *config.EnvVars) (*App, error) {
	cfg, err := config.LoadFromDir(env.DefinitionsDir)
	if err != nil {
		return nil, err
	}

	rec, err := LoadRecognizer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := guard.ValidateAll(rec.Ontology(), rec.Patterns()); err != nil {
		return nil, fmt.Errorf("invalid definitions: %w", err)
	}

	lk, err := LoadLinker(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{env: env, cfg: cfg, nlu: rec, linker: lk, ui: ui.NewUIStore()}
	if env.RedisURL != "" {
		rs, err := session.NewRedisStore(ctx, env.RedisURL, env.SessionTTL)
		if err != nil {
			return nil, err
		}
		a.sessions = rs
		logx.Info("App", "sessions stored in redis (ttl=%s)", env.SessionTTL)
	} else {
		ms := session.NewMemoryStore(env.SessionTTL)
		a.sessions, a.janitor = ms, ms
		logx.Info("App", "sessions stored in memory (ttl=%s)", env.SessionTTL)
	}

	rt := &runtime.Runtime{SpecsLoaded: true, Sessions: a.sessions}
	tr := tracker.New(rec, a.sessions, a.ui)
	handler := api.New(tr, lk, api.Options{
		APIKey:     env.APIKey,
		RateLimit:  env.RateLimit,
		RateWindow: env.RateWindow,
	})
	a.http = NewHTTPServer(":"+strconv.Itoa(env.Port), env, handler, a.ui, rt)
	return a, nil
}

// LoadRecognizer builds the recognizer the definitions describe.
func LoadRecognizer(ctx context.Context, cfg *config.Config) (*nlu.Recognizer, error) {
	return nlu.New(ctx, nlu.Options{
		OntologyPath: cfg.Ontology,
		DatabasePath: cfg.Database,
		MultiValued:  cfg.MultiValued,
		Patterns: nlu.Patterns{
			Bye:      cfg.Patterns.Bye,
			Thanks:   cfg.Patterns.Thanks,
			DontLike: cfg.Patterns.DontLike,
			Watched:  cfg.Patterns.Watched,
			Deny:     cfg.Patterns.Deny,
			Affirm:   cfg.Patterns.Affirm,
			DontCare: cfg.Patterns.DontCare,
		},
	})
}

// LoadLinker builds the title linker over the definitions' record store.
func LoadLinker(ctx context.Context, cfg *config.Config) (*linker.Linker, error) {
	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return linker.New(ctx, store, linker.Options{
		TitleColumn: cfg.Linker.TitleColumn,
		GenreColumn: cfg.Linker.GenreColumn,
		Templates:   cfg.Linker.Templates,
	})
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.janitor != nil {
		g.Go(func() error {
			return a.janitor.Janitor(gctx, a.env.SweepEvery)
		})
	}

	g.Go(func() error {
		return a.http.Start(gctx)
	})

	logx.Info("App", "movie-nlu v%s started", Version)

	err := g.Wait()
	if cerr := a.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

// Close releases the session store connection, if any.
func (a *App) Close() error {
	if c, ok := a.sessions.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Handler returns the service's HTTP handler.
func (a *App) Handler() http.Handler {
	return a.http.srv.Handler
}
