package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/chainflow/token-relay/logging"
)

// NewBearerAuth guards routes with a static bearer token. Comparison is
// constant-time so the token length and prefix do not leak through timing.
func NewBearerAuth(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			presented := strings.TrimPrefix(header, "Bearer ")
			if !strings.HasPrefix(header, "Bearer ") ||
				subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger := logging.LoggerFromContext(r.Context())
				logger.Warn("rejected request with missing or invalid bearer token")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
