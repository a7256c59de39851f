package usecase_test

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/repository/memory"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/rapidpro"
	"github.com/BlueRidgeLabs/chatpro/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

const testOrgID model.OrgID = "org-1"

// fakeRapidPro is an in-memory RapidPro workspace
type fakeRapidPro struct {
	mu       sync.Mutex
	contacts map[model.ExternalID]*model.RemoteContact
	groups   []*rapidpro.Group
	nextID   int

	// repeated is appended to every GetContacts result as a page overlap
	repeated []*model.RemoteContact

	getContactsErr error
	createErr      error
	updateErr      error
	deleteErr      error

	getContactsCalls int
	created          []*model.RemoteContact
	updated          []*model.RemoteContact
	deleted          []model.ExternalID
}

var _ rapidpro.Service = &fakeRapidPro{}
var _ rapidpro.Factory = &fakeRapidPro{}

func newFakeRapidPro() *fakeRapidPro {
	return &fakeRapidPro{
		contacts: make(map[model.ExternalID]*model.RemoteContact),
	}
}

func (f *fakeRapidPro) Client(org *model.Org) (rapidpro.Service, error) {
	return f, nil
}

func (f *fakeRapidPro) put(c *model.RemoteContact) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts[c.ExternalID] = c.Clone()
}

func (f *fakeRapidPro) remove(id model.ExternalID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.contacts, id)
}

func (f *fakeRapidPro) GetContact(ctx context.Context, id model.ExternalID) (*model.RemoteContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[id]
	if !ok {
		return nil, goerr.Wrap(rapidpro.ErrNotFound, "contact not found")
	}
	return c.Clone(), nil
}

func (f *fakeRapidPro) GetContacts(ctx context.Context, groups []model.GroupID) ([]*model.RemoteContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getContactsCalls++
	if f.getContactsErr != nil {
		return nil, f.getContactsErr
	}

	var result []*model.RemoteContact
	for _, c := range f.contacts {
		for _, g := range c.Groups {
			if slices.Contains(groups, g) {
				result = append(result, c.Clone())
				break
			}
		}
	}
	slices.SortFunc(result, func(a, b *model.RemoteContact) int {
		return cmp.Compare(a.ExternalID, b.ExternalID)
	})
	for _, c := range f.repeated {
		result = append(result, c.Clone())
	}
	return result, nil
}

func (f *fakeRapidPro) CreateContact(ctx context.Context, contact *model.RemoteContact) (*model.RemoteContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	c := contact.Clone()
	c.ExternalID = model.ExternalID(fmt.Sprintf("R-%03d", f.nextID))
	f.contacts[c.ExternalID] = c
	f.created = append(f.created, c.Clone())
	return c.Clone(), nil
}

func (f *fakeRapidPro) UpdateContact(ctx context.Context, contact *model.RemoteContact) (*model.RemoteContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.contacts[contact.ExternalID] = contact.Clone()
	f.updated = append(f.updated, contact.Clone())
	return contact.Clone(), nil
}

func (f *fakeRapidPro) DeleteContact(ctx context.Context, id model.ExternalID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.contacts[id]; !ok {
		return goerr.Wrap(rapidpro.ErrNotFound, "contact not found")
	}
	delete(f.contacts, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRapidPro) GetGroups(ctx context.Context) ([]*rapidpro.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.groups), nil
}

func (f *fakeRapidPro) GetGroup(ctx context.Context, id model.GroupID) (*rapidpro.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.ID == id {
			copied := *g
			return &copied, nil
		}
	}
	return nil, goerr.Wrap(rapidpro.ErrNotFound, "group not found")
}

// recordingQueue keeps submitted tasks without running them
type recordingQueue struct {
	mu        sync.Mutex
	tasks     []*model.Task
	submitErr error
}

func (q *recordingQueue) Submit(ctx context.Context, task *model.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.submitErr != nil {
		return q.submitErr
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *recordingQueue) list() []*model.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.tasks)
}

// mockNotifier records NotifySync calls
type mockNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

type notifyCall struct {
	orgID  model.OrgID
	result *model.SyncResult
	err    error
}

func (n *mockNotifier) NotifySync(ctx context.Context, org *model.Org, result *model.SyncResult, syncErr error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{orgID: org.ID, result: result, err: syncErr})
	return nil
}

type testEnv struct {
	repo     *memory.Memory
	orgs     *model.OrgRegistry
	remote   *fakeRapidPro
	queue    *recordingQueue
	notifier *mockNotifier
	uc       *usecase.UseCases
}

func newTestEnv(t *testing.T, rooms ...model.GroupID) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:     memory.New(),
		orgs:     model.NewOrgRegistry(),
		remote:   newFakeRapidPro(),
		queue:    &recordingQueue{},
		notifier: &mockNotifier{},
	}
	env.orgs.Register(&model.Org{
		ID:            testOrgID,
		Name:          "Nyaruka",
		APIURL:        "https://rapidpro.example.com",
		APIToken:      "token",
		WebhookSecret: "hook-secret",
		IsActive:      true,
	})

	for _, g := range rooms {
		gt.NoError(t, env.repo.Room().Save(context.Background(), &model.Room{
			OrgID:    testOrgID,
			GroupID:  g,
			Name:     "Room " + string(g),
			IsActive: true,
		})).Required()
		env.remote.groups = append(env.remote.groups, &rapidpro.Group{ID: g, Name: "Room " + string(g)})
	}

	env.build()
	return env
}

func (env *testEnv) build(opts ...usecase.Option) {
	opts = append([]usecase.Option{
		usecase.WithTaskQueue(env.queue),
		usecase.WithSyncNotifier(env.notifier),
		usecase.WithSyncConcurrency(2),
	}, opts...)
	env.uc = usecase.New(env.repo, env.orgs, env.remote, opts...)
}

func (q *recordingQueue) setSubmitErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.submitErr = err
}

func remoteContact(id model.ExternalID, name string, group model.GroupID) *model.RemoteContact {
	return &model.RemoteContact{
		ExternalID: id,
		Name:       name,
		URNs:       []model.URN{model.URN("tel:+2500" + string(id))},
		Fields:     map[string]string{model.DefaultChatNameField: "chat-" + string(id)},
		Groups:     []model.GroupID{group},
	}
}

// seedLocal stores the local projection of remote
func (env *testEnv) seedLocal(t *testing.T, remote *model.RemoteContact, group model.GroupID) *model.Contact {
	t.Helper()
	c, err := env.repo.Contact().Create(context.Background(),
		model.ContactFromRemote(testOrgID, remote, group, model.DefaultChatNameField))
	gt.NoError(t, err).Required()
	return c
}

func (env *testEnv) localByExternalID(t *testing.T, id model.ExternalID) *model.Contact {
	t.Helper()
	c, err := env.repo.Contact().GetByExternalID(context.Background(), testOrgID, id)
	gt.NoError(t, err).Required()
	return c
}

func sortedIDs(ids []model.ExternalID) []model.ExternalID {
	s := slices.Clone(ids)
	slices.Sort(s)
	return s
}
