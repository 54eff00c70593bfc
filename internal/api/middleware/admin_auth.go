package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/m04kA/SMC-PaymentService/internal/api/handlers"
)

// AdminTokenHeader заголовок с токеном администратора
const AdminTokenHeader = "X-Admin-Token"

const (
	msgMissingToken  = "требуется токен администратора"
	msgInvalidToken  = "неверный токен администратора"
	msgAdminDisabled = "административный API отключён"
)

// AdminAuth защищает административные маршруты статическим токеном
// Пустой token означает, что админка выключена и все запросы отклоняются
func AdminAuth(token string) func(http.Handler) http.Handler {
	expected := []byte(token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(expected) == 0 {
				handlers.RespondForbidden(w, msgAdminDisabled)
				return
			}

			got := r.Header.Get(AdminTokenHeader)
			if got == "" {
				handlers.RespondUnauthorized(w, msgMissingToken)
				return
			}

			if subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				handlers.RespondUnauthorized(w, msgInvalidToken)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
