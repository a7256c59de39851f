package model_test

import (
	"testing"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestOrgRegistry(t *testing.T) {
	reg := model.NewOrgRegistry()
	gt.Array(t, reg.List()).Length(0)

	reg.Register(&model.Org{ID: "a", Name: "A", IsActive: true})
	reg.Register(&model.Org{ID: "b", Name: "B"})
	reg.Register(&model.Org{ID: "c", Name: "C", IsActive: true})
	reg.Register(&model.Org{ID: "a", Name: "A2", IsActive: true})

	list := reg.List()
	gt.Array(t, list).Length(3)
	gt.Value(t, list[0].Name).Equal("A2")
	gt.Value(t, list[1].ID).Equal(model.OrgID("b"))

	active := reg.Active()
	gt.Array(t, active).Length(2)
	gt.Value(t, active[1].ID).Equal(model.OrgID("c"))

	org, err := reg.Get("c")
	gt.NoError(t, err).Required()
	gt.Value(t, org.Name).Equal("C")

	_, err = reg.Get("missing")
	gt.Error(t, err).Is(model.ErrOrgNotFound)
}

func TestOrg_ChatField(t *testing.T) {
	gt.Value(t, (&model.Org{}).ChatField()).Equal(model.DefaultChatNameField)
	gt.Value(t, (&model.Org{ChatNameField: "nick"}).ChatField()).Equal("nick")
}

func TestActiveGroupIDs(t *testing.T) {
	rooms := []*model.Room{
		{GroupID: "G1", IsActive: true},
		{GroupID: "G2", IsActive: false},
		{GroupID: "G3", IsActive: true},
	}
	gt.Value(t, model.ActiveGroupIDs(rooms)).Equal([]model.GroupID{"G1", "G3"})
}

func TestOrg_VerifyWebhookSecret(t *testing.T) {
	org := &model.Org{WebhookSecret: "s3cret"}
	gt.Bool(t, org.VerifyWebhookSecret("s3cret")).True()
	gt.Bool(t, org.VerifyWebhookSecret("wrong")).False()
	gt.Bool(t, org.VerifyWebhookSecret("")).False()

	gt.Bool(t, (&model.Org{}).VerifyWebhookSecret("")).False()
	gt.Bool(t, (&model.Org{}).VerifyWebhookSecret("anything")).False()
}
