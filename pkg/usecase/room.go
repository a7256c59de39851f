package usecase

import (
	"context"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/rapidpro"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// RoomUseCase manages the RapidPro groups an org tracks as rooms
type RoomUseCase struct {
	repo     interfaces.Repository
	orgs     *model.OrgRegistry
	rapidpro rapidpro.Factory
	queue    interfaces.TaskQueue
}

func NewRoomUseCase(repo interfaces.Repository, orgs *model.OrgRegistry, factory rapidpro.Factory, q interfaces.TaskQueue) *RoomUseCase {
	return &RoomUseCase{
		repo:     repo,
		orgs:     orgs,
		rapidpro: factory,
		queue:    q,
	}
}

func (uc *RoomUseCase) List(ctx context.Context, orgID model.OrgID) ([]*model.Room, error) {
	if _, err := uc.orgs.Get(orgID); err != nil {
		return nil, err
	}
	rooms, err := uc.repo.Room().List(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list rooms", goerr.V("org_id", orgID))
	}
	return rooms, nil
}

// UpdateRoomGroups makes groupIDs the active rooms of the org. Rooms not
// selected are deactivated, selected ones are created or reactivated with
// their current RapidPro name, then a contact sync is submitted.
func (uc *RoomUseCase) UpdateRoomGroups(ctx context.Context, orgID model.OrgID, groupIDs []model.GroupID) ([]*model.Room, error) {
	org, err := uc.orgs.Get(orgID)
	if err != nil {
		return nil, err
	}

	svc, err := uc.rapidpro.Client(org)
	if err != nil {
		return nil, err
	}
	groups, err := svc.GetGroups(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch groups")
	}
	names := make(map[model.GroupID]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}

	selected := make(map[model.GroupID]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		if _, ok := names[id]; !ok {
			return nil, goerr.Wrap(ErrGroupNotFound, "cannot select group", goerr.V("group_id", id))
		}
		selected[id] = struct{}{}
	}

	existing, err := uc.repo.Room().List(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list rooms")
	}
	for _, room := range existing {
		if _, ok := selected[room.GroupID]; ok || !room.IsActive {
			continue
		}
		room.IsActive = false
		if err := uc.repo.Room().Save(ctx, room); err != nil {
			return nil, goerr.Wrap(err, "failed to deactivate room", goerr.V("group_id", room.GroupID))
		}
	}

	for id := range selected {
		if err := uc.repo.Room().Save(ctx, &model.Room{
			OrgID:    orgID,
			GroupID:  id,
			Name:     names[id],
			IsActive: true,
		}); err != nil {
			return nil, goerr.Wrap(err, "failed to save room", goerr.V("group_id", id))
		}
	}

	if err := submit(ctx, uc.queue, model.NewSyncOrgTask(orgID)); err != nil {
		return nil, err
	}

	logging.From(ctx).Info("Room groups updated", "org_id", orgID, "rooms", len(selected))

	return uc.List(ctx, orgID)
}
