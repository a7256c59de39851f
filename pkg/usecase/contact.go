package usecase

import (
	"context"
	"errors"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/types"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// ContactUseCase handles contacts created and edited locally. Every change
// is persisted first and then submitted as a push task.
type ContactUseCase struct {
	repo  interfaces.Repository
	orgs  *model.OrgRegistry
	queue interfaces.TaskQueue
}

func NewContactUseCase(repo interfaces.Repository, orgs *model.OrgRegistry, q interfaces.TaskQueue) *ContactUseCase {
	return &ContactUseCase{
		repo:  repo,
		orgs:  orgs,
		queue: q,
	}
}

// CreateContactInput holds the attributes of a new local contact
type CreateContactInput struct {
	FullName string
	ChatName string
	URN      string
	GroupID  model.GroupID
}

// UpdateContactInput holds the attributes to change. Nil fields are kept.
type UpdateContactInput struct {
	FullName *string
	ChatName *string
	URN      *string
	GroupID  *model.GroupID
}

func (uc *ContactUseCase) Create(ctx context.Context, orgID model.OrgID, input CreateContactInput) (*model.Contact, error) {
	if _, err := uc.orgs.Get(orgID); err != nil {
		return nil, err
	}

	urn, err := model.ParseURN(input.URN)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid URN", goerr.V("urn", input.URN), goerr.V("cause", err.Error()))
	}
	if err := uc.checkRoom(ctx, orgID, input.GroupID); err != nil {
		return nil, err
	}

	contact := &model.Contact{
		OrgID: orgID,
		Identity: model.DisplayIdentity{
			FullName: input.FullName,
			ChatName: input.ChatName,
		},
		URN:      urn,
		GroupID:  input.GroupID,
		IsActive: true,
	}
	if err := contact.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid contact", goerr.V("cause", err.Error()))
	}

	created, err := uc.repo.Contact().Create(ctx, contact)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create contact")
	}

	if err := submit(ctx, uc.queue, model.NewPushContactTask(orgID, created.ID, types.ChangeTypeCreated)); err != nil {
		return nil, err
	}

	logging.From(ctx).Info("Contact created", "org_id", orgID, "contact_id", created.ID)
	return created, nil
}

func (uc *ContactUseCase) Update(ctx context.Context, orgID model.OrgID, id model.ContactID, input UpdateContactInput) (*model.Contact, error) {
	contact, err := uc.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		contact.Identity.FullName = *input.FullName
	}
	if input.ChatName != nil {
		contact.Identity.ChatName = *input.ChatName
	}
	if input.URN != nil {
		urn, err := model.ParseURN(*input.URN)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidInput, "invalid URN", goerr.V("urn", *input.URN), goerr.V("cause", err.Error()))
		}
		contact.URN = urn
	}
	if input.GroupID != nil && *input.GroupID != contact.GroupID {
		if err := uc.checkRoom(ctx, orgID, *input.GroupID); err != nil {
			return nil, err
		}
		contact.GroupID = *input.GroupID
	}

	updated, err := uc.repo.Contact().Update(ctx, contact)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update contact", goerr.V("contact_id", id))
	}

	if err := submit(ctx, uc.queue, model.NewPushContactTask(orgID, id, types.ChangeTypeUpdated)); err != nil {
		return nil, err
	}

	return updated, nil
}

// Release deactivates a contact and deletes it remotely
func (uc *ContactUseCase) Release(ctx context.Context, orgID model.OrgID, id model.ContactID) error {
	contact, err := uc.Get(ctx, orgID, id)
	if err != nil {
		return err
	}

	contact.IsActive = false
	if _, err := uc.repo.Contact().Update(ctx, contact); err != nil {
		return goerr.Wrap(err, "failed to deactivate contact", goerr.V("contact_id", id))
	}

	return submit(ctx, uc.queue, model.NewPushContactTask(orgID, id, types.ChangeTypeDeleted))
}

func (uc *ContactUseCase) Get(ctx context.Context, orgID model.OrgID, id model.ContactID) (*model.Contact, error) {
	if _, err := uc.orgs.Get(orgID); err != nil {
		return nil, err
	}

	contact, err := uc.repo.Contact().Get(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrContactNotFound, "contact not found", goerr.V("org_id", orgID), goerr.V("contact_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get contact", goerr.V("contact_id", id))
	}
	return contact, nil
}

// RoomParticipants returns the active contacts of a room as participants
func (uc *ContactUseCase) RoomParticipants(ctx context.Context, orgID model.OrgID, groupID model.GroupID) ([]model.Participant, error) {
	if _, err := uc.orgs.Get(orgID); err != nil {
		return nil, err
	}
	if _, err := uc.repo.Room().Get(ctx, orgID, groupID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrRoomNotFound, "room not found", goerr.V("group_id", groupID))
		}
		return nil, goerr.Wrap(err, "failed to get room")
	}

	contacts, err := uc.repo.Contact().ListByRoom(ctx, orgID, groupID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list room contacts", goerr.V("group_id", groupID))
	}

	participants := make([]model.Participant, len(contacts))
	for i, c := range contacts {
		participants[i] = c.Participant()
	}
	return participants, nil
}

// checkRoom verifies that groupID is an active room of the org
func (uc *ContactUseCase) checkRoom(ctx context.Context, orgID model.OrgID, groupID model.GroupID) error {
	if groupID == "" {
		return goerr.Wrap(ErrInvalidInput, "room is required")
	}

	room, err := uc.repo.Room().Get(ctx, orgID, groupID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrRoomNotFound, "room not found", goerr.V("org_id", orgID), goerr.V("group_id", groupID))
		}
		return goerr.Wrap(err, "failed to get room")
	}
	if room.OrgID != orgID {
		return goerr.Wrap(model.ErrContactOrgMismatch, "room belongs to another org", goerr.V("group_id", groupID))
	}
	if !room.IsActive {
		return goerr.Wrap(ErrRoomInactive, "cannot assign contact", goerr.V("group_id", groupID))
	}
	return nil
}
