package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/errutil"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

const webhookTokenHeader = "X-Chatpro-Token"

// webhookAuth checks the org webhook secret, taken from the X-Chatpro-Token
// header or the token query parameter.
func webhookAuth(uc WebhookUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			orgID := model.OrgID(chi.URLParam(r, "orgID"))

			token := r.Header.Get(webhookTokenHeader)
			if token == "" {
				token = r.URL.Query().Get("token")
			}

			ok, err := uc.VerifySecret(orgID, token)
			if err != nil {
				if errors.Is(err, model.ErrOrgNotFound) {
					errutil.HandleHTTP(ctx, w, err, http.StatusNotFound)
					return
				}
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to verify webhook token"), http.StatusInternalServerError)
				return
			}
			if !ok {
				http.Error(w, "Invalid webhook token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// adminAuth requires "Authorization: Bearer <token>"
func adminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
