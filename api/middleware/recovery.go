package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// ErrorWriter renders the response for a recovered panic
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err interface{})

// Recovery converts handler panics into 500 responses with a logged stack
// trace, so one bad request cannot take the server down.
func Recovery(logger *zap.Logger) func(next http.Handler) http.Handler {
	return RecoveryWithWriter(logger, func(w http.ResponseWriter, r *http.Request, err interface{}) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	})
}

// RecoveryWithWriter is Recovery with a caller-supplied error response
func RecoveryWithWriter(logger *zap.Logger, write ErrorWriter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						zap.Any("error", err),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()))
					write(w, r, err)
				}
			}()

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(fn)
	}
}
