package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// requestLogger writes one debug line per request, tagged with the chi
// request id so it can be matched against handler logs.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		ev := log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr)

		// A hijacked connection never reports a status through the wrapper
		status := ww.Status()
		switch {
		case status == 0 && gws.IsWebSocketUpgrade(r):
			ev = ev.Bool("upgraded", true)
		case status == 0:
			// nothing written; net/http answers with an empty 200
			ev = ev.Int("status", http.StatusOK).Int("bytes", 0)
		default:
			ev = ev.Int("status", status).Int("bytes", ww.BytesWritten())
		}

		ev.Dur("took", time.Since(start)).Msg("http request")
	})
}
