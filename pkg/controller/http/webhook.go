package http

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/usecase"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/errutil"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/safe"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

// WebhookUseCase is called by the RapidPro flow webhooks
type WebhookUseCase interface {
	VerifySecret(orgID model.OrgID, secret string) (bool, error)
	HandleContactChanged(ctx context.Context, orgID model.OrgID, externalID model.ExternalID, groupID model.GroupID) (usecase.ApplyOutcome, error)
	HandleContactDeleted(ctx context.Context, orgID model.OrgID, externalID model.ExternalID) error
}

var _ WebhookUseCase = &usecase.WebhookUseCase{}

// webhookParams is what a flow sends, either as form values or as JSON
type webhookParams struct {
	Contact string `json:"contact"`
	Group   string `json:"group"`
}

func parseWebhookParams(r *http.Request) (*webhookParams, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var p webhookParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			return nil, goerr.Wrap(err, "failed to decode webhook body")
		}
		return &p, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, goerr.Wrap(err, "failed to parse webhook form")
	}
	return &webhookParams{
		Contact: r.FormValue("contact"),
		Group:   r.FormValue("group"),
	}, nil
}

func contactChangedHandler(uc WebhookUseCase) http.HandlerFunc {
	type response struct {
		Contact string `json:"contact"`
		Outcome string `json:"outcome"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID := model.OrgID(chi.URLParam(r, "orgID"))

		params, err := parseWebhookParams(r)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}

		outcome, err := uc.HandleContactChanged(ctx, orgID, model.ExternalID(params.Contact), model.GroupID(params.Group))
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}

		safe.WriteJSON(ctx, w, http.StatusOK, response{
			Contact: params.Contact,
			Outcome: string(outcome),
		})
	}
}

func contactDeletedHandler(uc WebhookUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orgID := model.OrgID(chi.URLParam(r, "orgID"))

		params, err := parseWebhookParams(r)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}

		if err := uc.HandleContactDeleted(ctx, orgID, model.ExternalID(params.Contact)); err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
