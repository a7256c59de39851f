package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/types"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/rapidpro"
	"github.com/BlueRidgeLabs/chatpro/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestContactSync_FullReconciliation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1")

	for _, id := range []model.ExternalID{"A", "B", "C", "D", "E"} {
		env.seedLocal(t, remoteContact(id, "Name "+string(id), "G1"), "G1")
	}

	modified := remoteContact("A", "Renamed A", "G1")
	env.remote.put(modified)
	for _, id := range []model.ExternalID{"C", "D", "E", "F"} {
		env.remote.put(remoteContact(id, "Name "+string(id), "G1"))
	}

	result, err := env.uc.ContactSync.SyncOrg(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Value(t, result.Created).Equal([]model.ExternalID{"F"})
	gt.Value(t, result.Updated).Equal([]model.ExternalID{"A"})
	gt.Value(t, result.Deleted).Equal([]model.ExternalID{"B"})
	gt.Array(t, result.Failed).Length(0)

	gt.Value(t, env.localByExternalID(t, "A").Identity.FullName).Equal("Renamed A")
	gt.Bool(t, env.localByExternalID(t, "B").IsActive).False()
	f := env.localByExternalID(t, "F")
	gt.Bool(t, f.IsActive).True()
	gt.Value(t, f.GroupID).Equal(model.GroupID("G1"))
	gt.Value(t, f.Identity.ChatName).Equal("chat-F")
	gt.Value(t, f.URN).Equal(model.URN("tel:+2500F"))

	t.Run("second pass is a no-op", func(t *testing.T) {
		again, err := env.uc.ContactSync.SyncOrg(ctx, testOrgID)
		gt.NoError(t, err).Required()
		gt.Bool(t, again.HasChanges()).False()
		gt.Array(t, again.Failed).Length(0)
	})

	t.Run("status is recorded", func(t *testing.T) {
		status, err := env.uc.ContactSync.SyncStatus(ctx, testOrgID)
		gt.NoError(t, err).Required()
		gt.Bool(t, status.LastSuccess.IsZero()).False()
		gt.Value(t, status.LastError).Equal("")
	})
}

func TestContactSync_FlagsContactsItCannotRepresent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1", "G2")

	noURN := remoteContact("N", "No URN", "G1")
	noURN.URNs = nil
	env.remote.put(noURN)
	env.seedLocal(t, remoteContact("N", "No URN", "G1"), "G1")

	ambiguous := remoteContact("M", "Many rooms", "G1")
	ambiguous.Groups = []model.GroupID{"G1", "G2"}
	env.remote.put(ambiguous)

	env.remote.put(remoteContact("OK", "Fine", "G2"))

	result, err := env.uc.ContactSync.SyncOrg(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Value(t, result.Created).Equal([]model.ExternalID{"OK"})
	gt.Array(t, result.Deleted).Length(0)
	gt.Value(t, result.Failed).Equal([]model.SyncFailure{
		{ExternalID: "M", Reason: model.SyncFailureAmbiguousRoom},
		{ExternalID: "N", Reason: model.SyncFailureNoURN},
	})

	// flagged contacts are neither created nor deactivated
	_, err = env.repo.Contact().GetByExternalID(ctx, testOrgID, "M")
	gt.Error(t, err)
	gt.Bool(t, env.localByExternalID(t, "N").IsActive).True()

	status, err := env.uc.ContactSync.SyncStatus(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Value(t, status.Failed).Equal(2)
	gt.Value(t, status.Created).Equal(1)

	gt.Array(t, env.notifier.calls).Length(1).Required()
	gt.Array(t, env.notifier.calls[0].result.Failed).Length(2)
}

func TestContactSync_ReactivatesAndMovesContacts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1", "G2")

	inactive := env.seedLocal(t, remoteContact("A", "Name A", "G1"), "G1")
	inactive.IsActive = false
	_, err := env.repo.Contact().Update(ctx, inactive)
	gt.NoError(t, err).Required()
	env.remote.put(remoteContact("A", "Name A", "G1"))

	env.seedLocal(t, remoteContact("B", "Name B", "G1"), "G1")
	env.remote.put(remoteContact("B", "Name B", "G2"))

	result, err := env.uc.ContactSync.SyncOrg(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Value(t, sortedIDs(result.Updated)).Equal([]model.ExternalID{"A", "B"})

	gt.Bool(t, env.localByExternalID(t, "A").IsActive).True()
	gt.Value(t, env.localByExternalID(t, "B").GroupID).Equal(model.GroupID("G2"))
}

func TestContactSync_IgnoresUntrackedGroupsAndFields(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1")

	env.seedLocal(t, remoteContact("A", "Name A", "G1"), "G1")
	withExtras := remoteContact("A", "Name A", "G1")
	withExtras.Groups = append(withExtras.Groups, "G9")
	withExtras.Fields["age"] = "34"
	withExtras.URNs = append(withExtras.URNs, "twitter:name_a")
	env.remote.put(withExtras)

	result, err := env.uc.ContactSync.SyncOrg(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Bool(t, result.HasChanges()).False()
}

func TestContactSync_LeavesPendingContactsAlone(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1")

	pending, err := env.repo.Contact().Create(ctx, &model.Contact{
		OrgID:    testOrgID,
		Identity: model.DisplayIdentity{FullName: "Not pushed yet"},
		URN:      "tel:+1",
		GroupID:  "G1",
		IsActive: true,
	})
	gt.NoError(t, err).Required()

	result, err := env.uc.ContactSync.SyncOrg(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Bool(t, result.HasChanges()).False()

	got, err := env.repo.Contact().Get(ctx, testOrgID, pending.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, got.IsActive).True()
}

func TestContactSync_RepeatedRemoteContactCreatedOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1")

	f := remoteContact("F", "Name F", "G1")
	env.remote.put(f)
	env.remote.repeated = []*model.RemoteContact{f}

	result, err := env.uc.ContactSync.SyncOrg(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Value(t, result.Created).Equal([]model.ExternalID{"F"})
	gt.Array(t, result.Updated).Length(0)

	locals, err := env.repo.Contact().List(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Array(t, locals).Length(1)
}

func TestContactSync_ResubmitsStalledCreatePush(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1")

	env.queue.setSubmitErr(errors.New("queue unavailable"))
	_, err := env.uc.Contact.Create(ctx, testOrgID, usecase.CreateContactInput{
		FullName: "Stalled",
		URN:      "tel:+250788000001",
		GroupID:  "G1",
	})
	gt.Error(t, err)
	env.queue.setSubmitErr(nil)

	locals, err := env.repo.Contact().List(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Array(t, locals).Length(1).Required()
	stalled := locals[0]
	gt.Value(t, stalled.ExternalID).Equal(model.ExternalID(""))

	t.Run("recent contact waits for its own push", func(t *testing.T) {
		result, err := env.uc.ContactSync.SyncOrg(ctx, testOrgID)
		gt.NoError(t, err).Required()
		gt.Array(t, result.Resubmitted).Length(0)
		gt.Array(t, env.queue.list()).Length(0)
	})

	t.Run("stalled contact is pushed again", func(t *testing.T) {
		env.build(usecase.WithPushGrace(0))

		result, err := env.uc.ContactSync.SyncOrg(ctx, testOrgID)
		gt.NoError(t, err).Required()
		gt.Value(t, result.Resubmitted).Equal([]model.ContactID{stalled.ID})

		tasks := env.queue.list()
		gt.Array(t, tasks).Length(1).Required()
		gt.Value(t, tasks[0].Name).Equal(types.TaskPushContactChange)
		gt.Value(t, tasks[0].ContactID).Equal(stalled.ID)
		gt.Value(t, tasks[0].Change).Equal(types.ChangeTypeCreated)

		gt.NoError(t, env.uc.ContactPush.Push(ctx, testOrgID, stalled.ID, tasks[0].Change)).Required()
		got, err := env.repo.Contact().Get(ctx, testOrgID, stalled.ID)
		gt.NoError(t, err).Required()
		gt.String(t, string(got.ExternalID)).NotEqual("")
	})

	t.Run("released contact is not pushed again", func(t *testing.T) {
		env2 := newTestEnv(t, "G1")
		env2.build(usecase.WithPushGrace(0))
		_, err := env2.repo.Contact().Create(ctx, &model.Contact{
			OrgID:    testOrgID,
			URN:      "tel:+2",
			GroupID:  "G1",
			IsActive: false,
		})
		gt.NoError(t, err).Required()

		result, err := env2.uc.ContactSync.SyncOrg(ctx, testOrgID)
		gt.NoError(t, err).Required()
		gt.Array(t, result.Resubmitted).Length(0)
		gt.Array(t, env2.queue.list()).Length(0)
	})
}

func TestContactSync_NoRoomsDeactivatesEverything(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.seedLocal(t, remoteContact("A", "Name A", "G1"), "G1")
	env.remote.put(remoteContact("A", "Name A", "G1"))

	result, err := env.uc.ContactSync.SyncOrg(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.Value(t, result.Deleted).Equal([]model.ExternalID{"A"})
	gt.Value(t, env.remote.getContactsCalls).Equal(0)
}

func TestContactSync_FetchFailureAbortsWithoutWrites(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1")

	env.seedLocal(t, remoteContact("A", "Name A", "G1"), "G1")
	env.remote.getContactsErr = errors.New("rapidpro unavailable")

	_, err := env.uc.ContactSync.SyncOrg(ctx, testOrgID)
	gt.Error(t, err)
	gt.Bool(t, env.localByExternalID(t, "A").IsActive).True()

	status, err := env.uc.ContactSync.SyncStatus(ctx, testOrgID)
	gt.NoError(t, err).Required()
	gt.String(t, status.LastError).Contains("rapidpro unavailable")
	gt.Bool(t, status.LastSuccess.IsZero()).True()

	gt.Array(t, env.notifier.calls).Length(1).Required()
	gt.Value(t, env.notifier.calls[0].err).NotNil()
}

func TestContactSync_UnknownOrg(t *testing.T) {
	env := newTestEnv(t, "G1")
	_, err := env.uc.ContactSync.SyncOrg(context.Background(), "missing")
	gt.Error(t, err).Is(model.ErrOrgNotFound)
}

func TestContactSync_ApplyRemoteContact(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1")

	outcome, err := env.uc.ContactSync.ApplyRemoteContact(ctx, testOrgID, remoteContact("A", "Name A", "G1"), "G1")
	gt.NoError(t, err).Required()
	gt.Value(t, outcome).Equal(usecase.ApplyCreated)

	outcome, err = env.uc.ContactSync.ApplyRemoteContact(ctx, testOrgID, remoteContact("A", "Name A", "G1"), "G1")
	gt.NoError(t, err).Required()
	gt.Value(t, outcome).Equal(usecase.ApplyUnchanged)

	outcome, err = env.uc.ContactSync.ApplyRemoteContact(ctx, testOrgID, remoteContact("A", "New Name", "G1"), "G1")
	gt.NoError(t, err).Required()
	gt.Value(t, outcome).Equal(usecase.ApplyUpdated)

	noURN := remoteContact("B", "Name B", "G1")
	noURN.URNs = nil
	_, err = env.uc.ContactSync.ApplyRemoteContact(ctx, testOrgID, noURN, "G1")
	gt.Error(t, err).Is(usecase.ErrNoURN)
}

type factoryFunc func(org *model.Org) (rapidpro.Service, error)

func (f factoryFunc) Client(org *model.Org) (rapidpro.Service, error) {
	return f(org)
}

func TestContactSync_SyncAll(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "G1")
	env.orgs.Register(&model.Org{ID: "org-2", Name: "Broken", IsActive: true})
	env.orgs.Register(&model.Org{ID: "org-3", Name: "Inactive", IsActive: false})
	gt.NoError(t, env.repo.Room().Save(ctx, &model.Room{OrgID: "org-2", GroupID: "G1", IsActive: true})).Required()

	env.remote.put(remoteContact("A", "Name A", "G1"))

	factory := factoryFunc(func(org *model.Org) (rapidpro.Service, error) {
		if org.ID == "org-2" {
			return nil, goerr.New("bad credentials")
		}
		return env.remote, nil
	})
	uc := usecase.New(env.repo, env.orgs, factory, usecase.WithTaskQueue(env.queue))

	report := uc.ContactSync.SyncAll(ctx)
	gt.Value(t, len(report.Results)).Equal(1)
	gt.Value(t, report.Results[testOrgID].Created).Equal([]model.ExternalID{"A"})
	gt.Value(t, len(report.Errors)).Equal(1)
	gt.Value(t, report.Errors["org-2"]).NotNil()
}
