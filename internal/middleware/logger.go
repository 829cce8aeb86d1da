package middleware

import (
	"log"
	"net/http"
	"time"
)

// Logger logs each request with method, path, status, caller kind and
// duration. Caller kind distinguishes session-token traffic from anonymous
// guest traffic, which is the split that matters when reading quota logs.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		kind := "guest"
		if r.Header.Get("Authorization") != "" {
			kind = "user"
		}

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		log.Printf("%s %s %d %s %s",
			r.Method,
			r.URL.Path,
			ww.status,
			kind,
			time.Since(start).Round(time.Millisecond),
		)
	})
}

// statusWriter captures the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
