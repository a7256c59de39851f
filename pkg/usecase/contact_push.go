package usecase

import (
	"context"
	"errors"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/types"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/queue"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/rapidpro"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ContactPushUseCase pushes local contact changes to RapidPro
type ContactPushUseCase struct {
	repo     interfaces.Repository
	orgs     *model.OrgRegistry
	rapidpro rapidpro.Factory
}

func NewContactPushUseCase(repo interfaces.Repository, orgs *model.OrgRegistry, factory rapidpro.Factory) *ContactPushUseCase {
	return &ContactPushUseCase{
		repo:     repo,
		orgs:     orgs,
		rapidpro: factory,
	}
}

// Push sends one local change of a contact to RapidPro. Remote failures are
// returned as is so that the task is retried; errors that cannot be fixed by
// a retry are marked permanent.
func (uc *ContactPushUseCase) Push(ctx context.Context, orgID model.OrgID, contactID model.ContactID, change types.ChangeType) error {
	if !change.IsValid() {
		return queue.Permanent(goerr.Wrap(ErrInvalidInput, "unknown change type", goerr.V("change", change)))
	}

	org, err := uc.orgs.Get(orgID)
	if err != nil {
		return queue.Permanent(err)
	}

	contact, err := uc.repo.Contact().Get(ctx, orgID, contactID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return queue.Permanent(goerr.Wrap(ErrContactNotFound, "cannot push contact",
				goerr.V("org_id", orgID), goerr.V("contact_id", contactID)))
		}
		return goerr.Wrap(err, "failed to get contact", goerr.V("contact_id", contactID))
	}

	svc, err := uc.rapidpro.Client(org)
	if err != nil {
		return queue.Permanent(err)
	}

	logger := logging.From(ctx).With("org_id", orgID, "contact_id", contactID, "change", change)
	ctx = logging.With(ctx, logger)

	switch change {
	case types.ChangeTypeCreated:
		if contact.ExternalID != "" {
			logger.Info("Contact already exists remotely, pushing as update", "external_id", contact.ExternalID)
			return uc.pushUpdate(ctx, org, svc, contact)
		}
		return uc.pushCreate(ctx, org, svc, contact)

	case types.ChangeTypeUpdated:
		if contact.ExternalID == "" {
			logger.Debug("Contact not created remotely yet, pending create carries the change")
			return nil
		}
		return uc.pushUpdate(ctx, org, svc, contact)

	case types.ChangeTypeDeleted:
		if contact.ExternalID == "" {
			logger.Debug("Contact never reached RapidPro, nothing to delete")
			return nil
		}
		if err := svc.DeleteContact(ctx, contact.ExternalID); err != nil {
			if errors.Is(err, rapidpro.ErrNotFound) {
				logger.Info("Contact already deleted remotely", "external_id", contact.ExternalID)
				return nil
			}
			return goerr.Wrap(err, "failed to delete remote contact", goerr.V("external_id", contact.ExternalID))
		}
		logger.Info("Contact deleted remotely", "external_id", contact.ExternalID)
		return nil
	}

	return nil
}

func (uc *ContactPushUseCase) pushCreate(ctx context.Context, org *model.Org, svc rapidpro.Service, contact *model.Contact) error {
	created, err := svc.CreateContact(ctx, contact.AsRemote(org.ChatField()))
	if err != nil {
		return goerr.Wrap(err, "failed to create remote contact")
	}

	// reload so that local edits made during the remote call survive
	current, err := uc.repo.Contact().Get(ctx, contact.OrgID, contact.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to reload contact", goerr.V("external_id", created.ExternalID))
	}
	current.ExternalID = created.ExternalID
	if _, err := uc.repo.Contact().Update(ctx, current); err != nil {
		return goerr.Wrap(err, "failed to store external ID", goerr.V("external_id", created.ExternalID))
	}

	logging.From(ctx).Info("Contact created remotely", "external_id", created.ExternalID)
	return nil
}

func (uc *ContactPushUseCase) pushUpdate(ctx context.Context, org *model.Org, svc rapidpro.Service, contact *model.Contact) error {
	logger := logging.From(ctx)

	remote, err := svc.GetContact(ctx, contact.ExternalID)
	if err != nil {
		if errors.Is(err, rapidpro.ErrNotFound) {
			return queue.Permanent(goerr.Wrap(err, "remote contact no longer exists", goerr.V("external_id", contact.ExternalID)))
		}
		return goerr.Wrap(err, "failed to fetch remote contact", goerr.V("external_id", contact.ExternalID))
	}

	local := contact.AsRemote(org.ChatField())
	if !model.ContactsDiffer(local, remote) {
		logger.Debug("Remote contact already up to date")
		return nil
	}

	rooms, err := uc.repo.Room().List(ctx, org.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to list rooms")
	}

	merged := model.MergeContacts(local, remote, model.ActiveGroupIDs(rooms))
	if !model.ContactsDiffer(merged, remote) {
		logger.Debug("Merged contact equals remote contact")
		return nil
	}

	if _, err := svc.UpdateContact(ctx, merged); err != nil {
		return goerr.Wrap(err, "failed to update remote contact", goerr.V("external_id", contact.ExternalID))
	}

	logger.Info("Contact updated remotely", "external_id", contact.ExternalID)
	return nil
}
