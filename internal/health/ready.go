package health

import (
	"context"
	"net/http"
	"time"

	"github.com/ccastromar/movie-nlu/internal/runtime"
)

const pingTimeout = 2 * time.Second

func ReadyHandler(rt *runtime.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rt.SpecsLoaded {
			http.Error(w, "definitions not loaded", http.StatusServiceUnavailable)
			return
		}

		if rt.Sessions != nil {
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			defer cancel()
			if err := rt.Sessions.Ping(ctx); err != nil {
				http.Error(w, "session store unreachable", http.StatusServiceUnavailable)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
