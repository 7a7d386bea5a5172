// Package api exposes recognition and session management over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	"github.com/ccastromar/movie-nlu/internal/dialogue"
	"github.com/ccastromar/movie-nlu/internal/linker"
	"github.com/ccastromar/movie-nlu/internal/logx"
	"github.com/ccastromar/movie-nlu/internal/metrics"
	"github.com/ccastromar/movie-nlu/internal/session"
	"github.com/ccastromar/movie-nlu/internal/tracker"
)

// Max request size for POST bodies (1MB)
const maxBodyBytes int64 = 1 << 20

var idRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Turns is the part of the tracker the API drives.
type Turns interface {
	Turn(ctx context.Context, req tracker.Request) (*tracker.Result, error)
	Session(ctx context.Context, id string) (*session.Session, error)
	Forget(ctx context.Context, id string) error
}

type Options struct {
	// empty disables auth
	APIKey     string
	RateLimit  int
	RateWindow time.Duration
}

type API struct {
	turns  Turns
	linker *linker.Linker
	apiKey string
	rl     *rateLimiter
}

// New builds the API. lk may be nil, which disables /nlu/link.
func New(turns Turns, lk *linker.Linker, opts Options) *API {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 60
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	return &API{
		turns:  turns,
		linker: lk,
		apiKey: strings.TrimSpace(opts.APIKey),
		rl:     newRateLimiter(opts.RateLimit, opts.RateWindow),
	}
}

// Routes mounts the API endpoints on r.
func (a *API) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(a.requireAuth, a.rateLimit)

		r.With(requireJSON).Post("/nlu/parse", a.handleParse)
		r.With(requireJSON).Post("/nlu/link", a.handleLink)
		r.Get("/sessions/{id}", a.handleGetSession)
		r.Delete("/sessions/{id}", a.handleDeleteSession)
	})
}

type parseRequest struct {
	SessionID       string         `json:"session_id"`
	Utterance       string         `json:"utterance"`
	LastSysActs     []dialogue.Act `json:"last_sys_acts"`
	SystemMadeOffer bool           `json:"system_made_offer"`
}

type linkRequest struct {
	Utterance string `json:"utterance"`
}

type linkResponse struct {
	Titles []linker.Match `json:"titles"`
}

func (a *API) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SessionID != "" && !idRe.MatchString(req.SessionID) {
		http.Error(w, "invalid session_id", http.StatusBadRequest)
		return
	}

	acts, err := checkActs(req.LastSysActs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := a.turns.Turn(r.Context(), tracker.Request{
		SessionID:       req.SessionID,
		Utterance:       req.Utterance,
		LastSysActs:     acts,
		SystemMadeOffer: req.SystemMadeOffer,
	})
	if err != nil {
		logx.Error("API", "turn failed: %v", err)
		http.Error(w, "recognition failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleLink(w http.ResponseWriter, r *http.Request) {
	if a.linker == nil {
		http.Error(w, "linker not configured", http.StatusServiceUnavailable)
		return
	}
	var req linkRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		http.Error(w, "utterance required", http.StatusBadRequest)
		return
	}

	matches, err := a.linker.LinkUtterance(req.Utterance)
	if errors.Is(err, linker.ErrNoTemplate) {
		metrics.Links.Inc(map[string]string{"outcome": "no_template"})
		http.Error(w, "utterance matches no known template", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, m := range matches {
		outcome := "linked"
		if m.Title == "" {
			outcome = "unlinked"
		}
		metrics.Links.Inc(map[string]string{"outcome": outcome})
	}
	writeJSON(w, http.StatusOK, linkResponse{Titles: matches})
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	s, err := a.turns.Session(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logx.L(id, "API", "loading session: %v", err)
		http.Error(w, "session store error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := a.turns.Forget(r.Context(), id); err != nil {
		logx.L(id, "API", "deleting session: %v", err)
		http.Error(w, "session store error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkActs rejects acts without an intent and defaults a missing operator.
func checkActs(acts []dialogue.Act) ([]dialogue.Act, error) {
	for i := range acts {
		if acts[i].Intent == "" {
			return nil, fmt.Errorf("last_sys_acts[%d]: intent required", i)
		}
		if acts[i].Params == nil {
			acts[i].Params = []dialogue.Item{}
		}
		for j := range acts[i].Params {
			if acts[i].Params[j].Op == "" {
				acts[i].Params[j].Op = dialogue.EQ
			}
		}
	}
	return acts, nil
}

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !idRe.MatchString(id) {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// decode reads a size-limited JSON body into v, answering 413 or 400 itself.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth enforces the API key when one is configured.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.checkAuth(r) {
			w.Header().Set("WWW-Authenticate", "Bearer, X-API-Key")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) checkAuth(r *http.Request) bool {
	if a.apiKey == "" {
		return true
	}
	if k := r.Header.Get("X-API-Key"); k != "" && k == a.apiKey {
		return true
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:]) == a.apiKey
	}
	return false
}

func (a *API) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.rl.acquire(clientKey(r)); err != nil {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey picks an identifier for rate limiting: API key if present, else IP.
func clientKey(r *http.Request) string {
	if k := r.Header.Get("X-API-Key"); k != "" {
		return "key:" + k
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return "key:" + strings.TrimSpace(auth[7:])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return "ip:" + host
}

var errRateLimited = errors.New("rate limit exceeded")

// rateLimiter is a fixed-window counter per client key. Expired buckets are
// dropped at most once per window.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*rateBucket
	swept   time.Time
	now     func() time.Time
}

type rateBucket struct {
	start time.Time
	hits  int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, window: window, buckets: make(map[string]*rateBucket), now: time.Now}
}

func (rl *rateLimiter) acquire(key string) error {
	if key == "" {
		key = "anon"
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.swept) >= rl.window {
		for k, b := range rl.buckets {
			if now.Sub(b.start) >= rl.window {
				delete(rl.buckets, k)
			}
		}
		rl.swept = now
	}

	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.start) >= rl.window {
		rl.buckets[key] = &rateBucket{start: now, hits: 1}
		return nil
	}
	if b.hits >= rl.limit {
		return errRateLimited
	}
	b.hits++
	return nil
}
