package usecase

import (
	"context"
	"errors"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/rapidpro"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// WebhookUseCase applies contact events sent by RapidPro flows
type WebhookUseCase struct {
	repo     interfaces.Repository
	orgs     *model.OrgRegistry
	rapidpro rapidpro.Factory
	sync     *ContactSyncUseCase
}

func NewWebhookUseCase(repo interfaces.Repository, orgs *model.OrgRegistry, factory rapidpro.Factory, sync *ContactSyncUseCase) *WebhookUseCase {
	return &WebhookUseCase{
		repo:     repo,
		orgs:     orgs,
		rapidpro: factory,
		sync:     sync,
	}
}

// VerifySecret checks the webhook secret of an org
func (uc *WebhookUseCase) VerifySecret(orgID model.OrgID, secret string) (bool, error) {
	org, err := uc.orgs.Get(orgID)
	if err != nil {
		return false, err
	}
	return org.VerifyWebhookSecret(secret), nil
}

// HandleContactChanged pulls one remote contact into the room of groupID. An
// unknown group becomes a new room named after the RapidPro group.
func (uc *WebhookUseCase) HandleContactChanged(ctx context.Context, orgID model.OrgID, externalID model.ExternalID, groupID model.GroupID) (ApplyOutcome, error) {
	if externalID == "" || groupID == "" {
		return "", goerr.Wrap(ErrInvalidInput, "contact and group are required")
	}

	org, err := uc.orgs.Get(orgID)
	if err != nil {
		return "", err
	}
	svc, err := uc.rapidpro.Client(org)
	if err != nil {
		return "", err
	}

	if err := uc.ensureRoom(ctx, svc, orgID, groupID); err != nil {
		return "", err
	}

	remote, err := svc.GetContact(ctx, externalID)
	if err != nil {
		if errors.Is(err, rapidpro.ErrNotFound) {
			return "", goerr.Wrap(ErrContactNotFound, "remote contact not found", goerr.V("external_id", externalID))
		}
		return "", goerr.Wrap(err, "failed to fetch remote contact", goerr.V("external_id", externalID))
	}

	outcome, err := uc.sync.ApplyRemoteContact(ctx, orgID, remote, groupID)
	if err != nil {
		return "", err
	}

	logging.From(ctx).Info("Webhook contact applied",
		"org_id", orgID,
		"external_id", externalID,
		"group_id", groupID,
		"outcome", outcome)
	return outcome, nil
}

// HandleContactDeleted deactivates the local contact. Nothing is pushed back.
func (uc *WebhookUseCase) HandleContactDeleted(ctx context.Context, orgID model.OrgID, externalID model.ExternalID) error {
	if externalID == "" {
		return goerr.Wrap(ErrInvalidInput, "contact is required")
	}
	if _, err := uc.orgs.Get(orgID); err != nil {
		return err
	}

	contact, err := uc.repo.Contact().GetByExternalID(ctx, orgID, externalID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrContactNotFound, "contact not found", goerr.V("external_id", externalID))
		}
		return goerr.Wrap(err, "failed to get contact", goerr.V("external_id", externalID))
	}

	if !contact.IsActive {
		return nil
	}

	contact.IsActive = false
	if _, err := uc.repo.Contact().Update(ctx, contact); err != nil {
		return goerr.Wrap(err, "failed to deactivate contact", goerr.V("external_id", externalID))
	}

	logging.From(ctx).Info("Webhook contact deactivated", "org_id", orgID, "external_id", externalID)
	return nil
}

func (uc *WebhookUseCase) ensureRoom(ctx context.Context, svc rapidpro.Service, orgID model.OrgID, groupID model.GroupID) error {
	_, err := uc.repo.Room().Get(ctx, orgID, groupID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return goerr.Wrap(err, "failed to get room", goerr.V("group_id", groupID))
	}

	group, err := svc.GetGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, rapidpro.ErrNotFound) {
			return goerr.Wrap(ErrGroupNotFound, "cannot create room", goerr.V("group_id", groupID))
		}
		return goerr.Wrap(err, "failed to fetch group", goerr.V("group_id", groupID))
	}

	if err := uc.repo.Room().Save(ctx, &model.Room{
		OrgID:    orgID,
		GroupID:  group.ID,
		Name:     group.Name,
		IsActive: true,
	}); err != nil {
		return goerr.Wrap(err, "failed to create room", goerr.V("group_id", groupID))
	}

	logging.From(ctx).Info("Room created from webhook", "org_id", orgID, "group_id", groupID, "name", group.Name)
	return nil
}
