package usecase_test

import (
	"context"
	"testing"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/rapidpro"
	"github.com/BlueRidgeLabs/chatpro/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestWebhook_VerifySecret(t *testing.T) {
	env := newTestEnv(t)

	ok, err := env.uc.Webhook.VerifySecret(testOrgID, "hook-secret")
	gt.NoError(t, err).Required()
	gt.Bool(t, ok).True()

	ok, err = env.uc.Webhook.VerifySecret(testOrgID, "wrong")
	gt.NoError(t, err).Required()
	gt.Bool(t, ok).False()

	_, err = env.uc.Webhook.VerifySecret("missing", "hook-secret")
	gt.Error(t, err).Is(model.ErrOrgNotFound)
}

func TestWebhook_HandleContactChanged(t *testing.T) {
	ctx := context.Background()

	t.Run("creates contact in existing room", func(t *testing.T) {
		env := newTestEnv(t, "G1")
		env.remote.put(remoteContact("A", "Name A", "G1"))

		outcome, err := env.uc.Webhook.HandleContactChanged(ctx, testOrgID, "A", "G1")
		gt.NoError(t, err).Required()
		gt.Value(t, outcome).Equal(usecase.ApplyCreated)
		gt.Value(t, env.localByExternalID(t, "A").GroupID).Equal(model.GroupID("G1"))
	})

	t.Run("creates missing room from remote group", func(t *testing.T) {
		env := newTestEnv(t)
		env.remote.groups = append(env.remote.groups, &rapidpro.Group{ID: "G7", Name: "Youth"})
		env.remote.put(remoteContact("A", "Name A", "G7"))

		_, err := env.uc.Webhook.HandleContactChanged(ctx, testOrgID, "A", "G7")
		gt.NoError(t, err).Required()

		room, err := env.repo.Room().Get(ctx, testOrgID, "G7")
		gt.NoError(t, err).Required()
		gt.Value(t, room.Name).Equal("Youth")
		gt.Bool(t, room.IsActive).True()
	})

	t.Run("updates existing contact", func(t *testing.T) {
		env := newTestEnv(t, "G1")
		env.seedLocal(t, remoteContact("A", "Name A", "G1"), "G1")
		env.remote.put(remoteContact("A", "Changed", "G1"))

		outcome, err := env.uc.Webhook.HandleContactChanged(ctx, testOrgID, "A", "G1")
		gt.NoError(t, err).Required()
		gt.Value(t, outcome).Equal(usecase.ApplyUpdated)
		gt.Value(t, env.localByExternalID(t, "A").Identity.FullName).Equal("Changed")
	})

	t.Run("unknown group", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.uc.Webhook.HandleContactChanged(ctx, testOrgID, "A", "G404")
		gt.Error(t, err).Is(usecase.ErrGroupNotFound)
	})

	t.Run("unknown remote contact", func(t *testing.T) {
		env := newTestEnv(t, "G1")
		_, err := env.uc.Webhook.HandleContactChanged(ctx, testOrgID, "A", "G1")
		gt.Error(t, err).Is(usecase.ErrContactNotFound)
	})

	t.Run("missing parameters", func(t *testing.T) {
		env := newTestEnv(t, "G1")
		_, err := env.uc.Webhook.HandleContactChanged(ctx, testOrgID, "", "G1")
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})
}

func TestWebhook_HandleContactDeleted(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1")
	env.seedLocal(t, remoteContact("A", "Name A", "G1"), "G1")

	gt.NoError(t, env.uc.Webhook.HandleContactDeleted(ctx, testOrgID, "A")).Required()
	gt.Bool(t, env.localByExternalID(t, "A").IsActive).False()

	// nothing is pushed back
	gt.Array(t, env.queue.list()).Length(0)
	gt.Array(t, env.remote.deleted).Length(0)

	// idempotent
	gt.NoError(t, env.uc.Webhook.HandleContactDeleted(ctx, testOrgID, "A"))

	err := env.uc.Webhook.HandleContactDeleted(ctx, testOrgID, "Z")
	gt.Error(t, err).Is(usecase.ErrContactNotFound)
}
