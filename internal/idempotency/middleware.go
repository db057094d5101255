package idempotency

import (
	"net/http"

	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
)

// HeaderKey is the request header carrying the client's idempotency key.
const HeaderKey = "Idempotency-Key"

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Middleware serves reject instead of next when a POST repeats an
// Idempotency-Key seen within the store's TTL. Requests without the header
// pass through. A key is only kept once next answers 2xx; any other outcome
// releases it so the client can retry. When Redis is unreachable the request
// is let through and the failure is logged.
func Middleware(s *Store, reject http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderKey)
			if r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			rkey := s.Key(r.Method, r.URL.Path, key)
			seen, err := s.Seen(r.Context(), rkey)
			if err != nil {
				obs.Logger.Warn("idempotency check failed", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				reject.ServeHTTP(w, r)
				return
			}
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			if sw.status >= 200 && sw.status < 300 {
				return
			}
			if err := s.Forget(r.Context(), rkey); err != nil {
				obs.Logger.Warn("idempotency release failed", "error", err, "path", r.URL.Path)
			}
		})
	}
}
