package usecase

import (
	"context"
	"errors"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/types"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/queue"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
)

// RegisterTasks binds the task handlers to router
func (uc *UseCases) RegisterTasks(router *queue.Router) {
	router.Handle(types.TaskPushContactChange, func(ctx context.Context, task *model.Task) error {
		return uc.ContactPush.Push(ctx, task.OrgID, task.ContactID, task.Change)
	})

	router.Handle(types.TaskSyncOrgContacts, func(ctx context.Context, task *model.Task) error {
		_, err := uc.ContactSync.SyncOrg(ctx, task.OrgID)
		return permanentIfOrgMissing(err)
	})

	router.Handle(types.TaskSyncAllContacts, func(ctx context.Context, task *model.Task) error {
		report := uc.ContactSync.SyncAll(ctx)
		logging.From(ctx).Info("All contact syncs finished",
			"succeeded", len(report.Results),
			"failed", len(report.Errors))
		return nil
	})

	router.Handle(types.TaskUpdateRoomGroups, func(ctx context.Context, task *model.Task) error {
		_, err := uc.Room.UpdateRoomGroups(ctx, task.OrgID, task.GroupIDs)
		if errors.Is(err, ErrGroupNotFound) {
			return queue.Permanent(err)
		}
		return permanentIfOrgMissing(err)
	})
}

func permanentIfOrgMissing(err error) error {
	if errors.Is(err, model.ErrOrgNotFound) {
		return queue.Permanent(err)
	}
	return err
}
