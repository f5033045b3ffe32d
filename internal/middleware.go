package internal

import (
	"net/http"
	"time"

	"asset-lifecycle-api/internal/auth"

	"github.com/rs/zerolog/log"
)

// RequestLogger logs every request with its status and duration once the
// handler chain finishes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		next.ServeHTTP(rw, r)

		evt := log.Info()
		if rw.code >= 400 {
			evt = log.Warn()
		}
		if rw.code >= 500 {
			evt = log.Error()
		}
		if userID := auth.UserIDFromContext(r.Context()); userID != 0 {
			evt = evt.Int64("user_id", userID)
		}
		evt.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.code).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("request")
	})
}
