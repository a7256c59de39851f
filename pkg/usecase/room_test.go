package usecase_test

import (
	"context"
	"testing"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/types"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/rapidpro"
	"github.com/BlueRidgeLabs/chatpro/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestRoomUseCase_UpdateRoomGroups(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1", "G2")
	env.remote.groups = []*rapidpro.Group{
		{ID: "G1", Name: "Ajax"},
		{ID: "G2", Name: "Chelsea"},
		{ID: "G3", Name: "Dynamos"},
	}

	rooms, err := env.uc.Room.UpdateRoomGroups(ctx, testOrgID, []model.GroupID{"G2", "G3"})
	gt.NoError(t, err).Required()
	gt.Array(t, rooms).Length(3).Required()

	byID := map[model.GroupID]*model.Room{}
	for _, r := range rooms {
		byID[r.GroupID] = r
	}
	gt.Bool(t, byID["G1"].IsActive).False()
	gt.Bool(t, byID["G2"].IsActive).True()
	gt.Value(t, byID["G2"].Name).Equal("Chelsea")
	gt.Bool(t, byID["G3"].IsActive).True()
	gt.Value(t, byID["G3"].Name).Equal("Dynamos")

	tasks := env.queue.list()
	gt.Array(t, tasks).Length(1).Required()
	gt.Value(t, tasks[0].Name).Equal(types.TaskSyncOrgContacts)
	gt.Value(t, tasks[0].OrgID).Equal(testOrgID)

	t.Run("reactivates room", func(t *testing.T) {
		rooms, err := env.uc.Room.UpdateRoomGroups(ctx, testOrgID, []model.GroupID{"G1"})
		gt.NoError(t, err).Required()
		gt.Value(t, model.ActiveGroupIDs(rooms)).Equal([]model.GroupID{"G1"})
	})

	t.Run("unknown group leaves rooms untouched", func(t *testing.T) {
		_, err := env.uc.Room.UpdateRoomGroups(ctx, testOrgID, []model.GroupID{"G404"})
		gt.Error(t, err).Is(usecase.ErrGroupNotFound)

		rooms, err := env.uc.Room.List(ctx, testOrgID)
		gt.NoError(t, err).Required()
		gt.Value(t, model.ActiveGroupIDs(rooms)).Equal([]model.GroupID{"G1"})
	})
}
