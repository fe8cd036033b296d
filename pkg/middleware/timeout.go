package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/MilaVelkova/NoSQLRiak/pkg/logger"
)

// Timeout bounds each request by d. Aggregation scans that run past the
// budget get a 504 with a JSON body, and any response the late handler tries
// to write afterwards is discarded so the two never interleave on the wire.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	log := logger.WithComponent("timeout")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			dw := &deadlineWriter{inner: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if dw.expire() {
					log.Warn("request exceeded deadline",
						"method", r.Method,
						"path", r.URL.Path,
						"deadline", d,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					w.Write([]byte(`{"error":"query timed out"}`))
				}
			}
		})
	}
}

// deadlineWriter serialises the handler goroutine and the timeout branch.
// Once expired it swallows handler writes; once the handler has written,
// expire reports false and no timeout response is sent.
type deadlineWriter struct {
	inner   http.ResponseWriter
	mu      sync.Mutex
	started bool
	expired bool
}

func (dw *deadlineWriter) Header() http.Header {
	return dw.inner.Header()
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.expired {
		return
	}
	dw.started = true
	dw.inner.WriteHeader(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.expired {
		return len(b), nil
	}
	dw.started = true
	return dw.inner.Write(b)
}

// expire marks the writer dead and reports whether the timeout response may
// still be written.
func (dw *deadlineWriter) expire() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.expired = true
	return !dw.started
}
