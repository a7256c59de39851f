package model_test

import (
	"testing"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestTask_Validate(t *testing.T) {
	t.Run("constructors produce valid tasks", func(t *testing.T) {
		tasks := []*model.Task{
			model.NewPushContactTask("org", "c1", types.ChangeTypeUpdated),
			model.NewSyncOrgTask("org"),
			model.NewSyncAllTask(),
			model.NewUpdateRoomGroupsTask("org", []model.GroupID{"G1"}),
		}
		for _, task := range tasks {
			gt.NoError(t, task.Validate())
			gt.String(t, string(task.ID)).NotEqual("")
		}
	})

	t.Run("push task requires a valid change", func(t *testing.T) {
		task := model.NewPushContactTask("org", "c1", types.ChangeType("moved"))
		gt.Value(t, task.Validate()).NotNil()
	})

	t.Run("sync task requires an org", func(t *testing.T) {
		gt.Value(t, model.NewSyncOrgTask("").Validate()).NotNil()
	})

	t.Run("unknown name", func(t *testing.T) {
		gt.Value(t, (&model.Task{Name: "send"}).Validate()).NotNil()
	})
}
