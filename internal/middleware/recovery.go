package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"billing-backend/internal/apperrors"
	"billing-backend/pkg/utils"
)

// PanicRecovery converts handler panics into the standard INTERNAL_ERROR
// envelope instead of dropping the connection.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[HTTP] panic on %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				utils.Error(w, apperrors.Internal(apperrors.CodeInternalError, "Internal server error"))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
