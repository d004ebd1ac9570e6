package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

const (
	// TriggerSecretHeader заголовок с общим секретом внешнего планировщика
	TriggerSecretHeader = "X-Trigger-Secret"

	msgUnauthorized = "неверный или отсутствующий секрет"
)

// TriggerAuth пропускает запрос, только если X-Trigger-Secret или Authorization: Bearer
// совпадает с secret. Иначе 401 без вызова обработчика
func TriggerAuth(secret string, logger Logger) func(http.Handler) http.Handler {
	expected := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := presentedSecret(r)
			if len(expected) == 0 || got == "" || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				logger.Warn("%s %s - Trigger rejected: invalid or missing secret, remote=%s", r.Method, r.URL.Path, clientIP(r))
				handlers.RespondUnauthorized(w, msgUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func presentedSecret(r *http.Request) string {
	if v := r.Header.Get(TriggerSecretHeader); v != "" {
		return v
	}
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}
