package usecase

import (
	"context"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/rapidpro"
	"github.com/m-mizutani/goerr/v2"
)

const (
	defaultSyncConcurrency = 4
	defaultPushGrace       = 10 * time.Minute
)

type UseCases struct {
	repo            interfaces.Repository
	orgs            *model.OrgRegistry
	rapidpro        rapidpro.Factory
	queue           interfaces.TaskQueue
	notifier        interfaces.SyncNotifier
	syncConcurrency int
	pushGrace       time.Duration

	ContactSync *ContactSyncUseCase
	ContactPush *ContactPushUseCase
	Contact     *ContactUseCase
	Webhook     *WebhookUseCase
	Room        *RoomUseCase
}

type Option func(*UseCases)

// WithTaskQueue sets the queue receiving push and sync tasks
func WithTaskQueue(q interfaces.TaskQueue) Option {
	return func(uc *UseCases) {
		uc.queue = q
	}
}

// WithSyncNotifier reports failed or flagged sync passes
func WithSyncNotifier(n interfaces.SyncNotifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

// WithSyncConcurrency bounds the number of orgs synchronized in parallel
func WithSyncConcurrency(n int) Option {
	return func(uc *UseCases) {
		uc.syncConcurrency = n
	}
}

// WithPushGrace sets how long a locally created contact may wait for its
// external ID before a sync pass submits the create push again
func WithPushGrace(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.pushGrace = d
	}
}

func New(repo interfaces.Repository, orgs *model.OrgRegistry, factory rapidpro.Factory, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:            repo,
		orgs:            orgs,
		rapidpro:        factory,
		syncConcurrency: defaultSyncConcurrency,
		pushGrace:       defaultPushGrace,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.ContactSync = NewContactSyncUseCase(repo, orgs, factory, uc.notifier, uc.queue, uc.syncConcurrency, uc.pushGrace)
	uc.ContactPush = NewContactPushUseCase(repo, orgs, factory)
	uc.Contact = NewContactUseCase(repo, orgs, uc.queue)
	uc.Webhook = NewWebhookUseCase(repo, orgs, factory, uc.ContactSync)
	uc.Room = NewRoomUseCase(repo, orgs, factory, uc.queue)

	return uc
}

// Orgs returns the org registry
func (uc *UseCases) Orgs() *model.OrgRegistry {
	return uc.orgs
}

// SubmitSync schedules a pull reconciliation of one org
func (uc *UseCases) SubmitSync(ctx context.Context, orgID model.OrgID) (*model.Task, error) {
	if _, err := uc.orgs.Get(orgID); err != nil {
		return nil, err
	}
	task := model.NewSyncOrgTask(orgID)
	if err := submit(ctx, uc.queue, task); err != nil {
		return nil, err
	}
	return task, nil
}

func submit(ctx context.Context, q interfaces.TaskQueue, task *model.Task) error {
	if q == nil {
		return goerr.Wrap(ErrTaskQueueNotConfigured, "cannot submit task", goerr.V("name", task.Name))
	}
	if err := q.Submit(ctx, task); err != nil {
		return goerr.Wrap(err, "failed to submit task", goerr.V("task_id", task.ID), goerr.V("name", task.Name))
	}
	return nil
}
