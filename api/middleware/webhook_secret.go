package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/davronbekov/taxipark-backend/api/responses"
	pkgerrors "github.com/davronbekov/taxipark-backend/pkg/errors"
	"github.com/davronbekov/taxipark-backend/pkg/logger"
)

const webhookSecretHeader = "X-Webhook-Secret"

// WebhookSecret guards the bot bridge endpoints with a shared secret.
// An empty configured secret disables the surface entirely.
func WebhookSecret(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "webhooks are not enabled"))
				return
			}
			provided := r.Header.Get(webhookSecretHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook secret"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
