package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ccastromar/movie-nlu/internal/api"
	"github.com/ccastromar/movie-nlu/internal/config"
	"github.com/ccastromar/movie-nlu/internal/health"
	"github.com/ccastromar/movie-nlu/internal/logx"
	"github.com/ccastromar/movie-nlu/internal/metrics"
	"github.com/ccastromar/movie-nlu/internal/runtime"
	"github.com/ccastromar/movie-nlu/internal/ui"
)

type HTTPServer struct {
	srv *http.Server
}

func NewHTTPServer(addr string, env *config.EnvVars, handler *api.API, uiStore *ui.UIStore, rt *runtime.Runtime) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(handler, uiStore, rt),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       env.ReadTimeout,
			WriteTimeout:      env.WriteTimeout,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1MB
		},
	}
}

// NewRouter mounts every route behind the hardening and metrics middleware.
func NewRouter(handler *api.API, uiStore *ui.UIStore, rt *runtime.Runtime) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, secureMiddleware, observe)

	handler.Routes(r)
	r.Get("/ui", uiStore.HandleIndex)
	r.Get("/ui/session", uiStore.HandleSession)
	r.Get("/health/live", health.LiveHandler)
	r.Get("/health/ready", health.ReadyHandler(rt))
	r.Get("/metrics", metrics.ServeHTTP)
	return r
}

func (h *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logx.Info("HTTP", "listening on %s", h.srv.Addr)
		errCh <- h.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logx.Info("HTTP", "shutting down server...")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return h.srv.Shutdown(shutCtx)
	}
}

// observe records request counts and latency by route pattern.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		lbls := map[string]string{"method": r.Method, "path": path, "status": strconv.Itoa(status)}
		metrics.HTTPRequests.Inc(lbls)
		metrics.HTTPDuration.Observe(lbls, time.Since(start).Seconds())
	})
}

// secureMiddleware adds basic hardening: security headers, a body size limit
// and a TRACE block.
func secureMiddleware(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodTrace {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'")
		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}

		next.ServeHTTP(w, r)
	})
}
