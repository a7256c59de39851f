package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/types"
	"github.com/BlueRidgeLabs/chatpro/pkg/service/rapidpro"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/errutil"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// ApplyOutcome tells what applying a remote contact did locally
type ApplyOutcome string

const (
	ApplyCreated   ApplyOutcome = "created"
	ApplyUpdated   ApplyOutcome = "updated"
	ApplyUnchanged ApplyOutcome = "unchanged"
)

// ContactSyncUseCase pulls RapidPro contacts into the local roster
type ContactSyncUseCase struct {
	repo        interfaces.Repository
	orgs        *model.OrgRegistry
	rapidpro    rapidpro.Factory
	notifier    interfaces.SyncNotifier
	queue       interfaces.TaskQueue
	concurrency int
	// pushGrace is how long a contact may stay without an external ID
	// before a sync pass submits its create push again
	pushGrace time.Duration
}

func NewContactSyncUseCase(repo interfaces.Repository, orgs *model.OrgRegistry, factory rapidpro.Factory, notifier interfaces.SyncNotifier, q interfaces.TaskQueue, concurrency int, pushGrace time.Duration) *ContactSyncUseCase {
	if concurrency <= 0 {
		concurrency = defaultSyncConcurrency
	}
	if pushGrace < 0 {
		pushGrace = 0
	}
	return &ContactSyncUseCase{
		repo:        repo,
		orgs:        orgs,
		rapidpro:    factory,
		notifier:    notifier,
		queue:       q,
		concurrency: concurrency,
		pushGrace:   pushGrace,
	}
}

// SyncOrg reconciles the local contacts of an org with the RapidPro contacts
// of its active rooms and records the outcome in the org's SyncStatus.
func (uc *ContactSyncUseCase) SyncOrg(ctx context.Context, orgID model.OrgID) (*model.SyncResult, error) {
	org, err := uc.orgs.Get(orgID)
	if err != nil {
		return nil, err
	}

	logger := logging.From(ctx).With("org_id", org.ID)
	ctx = logging.With(ctx, logger)
	started := time.Now().UTC()

	result, syncErr := uc.syncOrg(ctx, org)

	if err := uc.saveStatus(ctx, org.ID, started, result, syncErr); err != nil {
		if syncErr == nil {
			return nil, err
		}
		_ = errutil.Handle(ctx, err, "failed to save sync status")
	}

	if uc.notifier != nil {
		if err := uc.notifier.NotifySync(ctx, org, result, syncErr); err != nil {
			logger.Warn("Failed to notify sync outcome", "error", err.Error())
		}
	}

	if syncErr != nil {
		return nil, syncErr
	}

	logger.Info("Contact sync completed",
		"created", len(result.Created),
		"updated", len(result.Updated),
		"deleted", len(result.Deleted),
		"failed", len(result.Failed),
		"duration", time.Since(started).String())

	return result, nil
}

func (uc *ContactSyncUseCase) syncOrg(ctx context.Context, org *model.Org) (*model.SyncResult, error) {
	logger := logging.From(ctx)

	rooms, err := uc.repo.Room().List(ctx, org.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list rooms")
	}
	tracked := model.ActiveGroupIDs(rooms)

	var incoming []*model.RemoteContact
	if len(tracked) > 0 {
		svc, err := uc.rapidpro.Client(org)
		if err != nil {
			return nil, err
		}
		incoming, err = svc.GetContacts(ctx, tracked)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to fetch remote contacts", goerr.V("groups", tracked))
		}
	}

	locals, err := uc.repo.Contact().List(ctx, org.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list local contacts")
	}

	// contacts without an external ID wait for their push and are left alone
	byExternalID := make(map[model.ExternalID]*model.Contact, len(locals))
	for _, c := range locals {
		if c.ExternalID != "" {
			byExternalID[c.ExternalID] = c
		}
	}

	result := &model.SyncResult{}
	seen := make(map[model.ExternalID]struct{}, len(incoming))

	for _, remote := range incoming {
		// offset paging may return a contact twice while the remote list changes
		if _, dup := seen[remote.ExternalID]; dup {
			continue
		}
		seen[remote.ExternalID] = struct{}{}

		if len(remote.URNs) == 0 {
			result.Failed = append(result.Failed, model.SyncFailure{ExternalID: remote.ExternalID, Reason: model.SyncFailureNoURN})
			continue
		}

		groups := remote.TrackedGroups(tracked)
		if len(groups) != 1 {
			reason := model.SyncFailureAmbiguousRoom
			if len(groups) == 0 {
				reason = model.SyncFailureNoRoom
			}
			logger.Warn("Remote contact has no single room, skipped",
				"external_id", remote.ExternalID,
				"rooms", groups)
			result.Failed = append(result.Failed, model.SyncFailure{ExternalID: remote.ExternalID, Reason: reason})
			continue
		}

		outcome, err := uc.apply(ctx, org, byExternalID[remote.ExternalID], remote, groups[0])
		if err != nil {
			return nil, err
		}
		switch outcome {
		case ApplyCreated:
			result.Created = append(result.Created, remote.ExternalID)
		case ApplyUpdated:
			result.Updated = append(result.Updated, remote.ExternalID)
		case ApplyUnchanged:
		}
	}

	for _, c := range locals {
		if c.ExternalID == "" || !c.IsActive {
			continue
		}
		if _, ok := seen[c.ExternalID]; ok {
			continue
		}

		c.IsActive = false
		if _, err := uc.repo.Contact().Update(ctx, c); err != nil {
			return nil, goerr.Wrap(err, "failed to deactivate contact", goerr.V("external_id", c.ExternalID))
		}
		result.Deleted = append(result.Deleted, c.ExternalID)
	}

	result.Resubmitted = uc.resubmitPending(ctx, org, locals)

	return result, nil
}

// resubmitPending submits the create push again for active contacts that
// still have no external ID after the push grace period.
func (uc *ContactSyncUseCase) resubmitPending(ctx context.Context, org *model.Org, locals []*model.Contact) []model.ContactID {
	if uc.queue == nil {
		return nil
	}
	logger := logging.From(ctx)
	cutoff := time.Now().Add(-uc.pushGrace)

	var resubmitted []model.ContactID
	for _, c := range locals {
		if c.ExternalID != "" || !c.IsActive || c.UpdatedAt.After(cutoff) {
			continue
		}
		task := model.NewPushContactTask(org.ID, c.ID, types.ChangeTypeCreated)
		if err := submit(ctx, uc.queue, task); err != nil {
			logger.Warn("Failed to resubmit pending contact push", "contact_id", c.ID, "error", err.Error())
			continue
		}
		resubmitted = append(resubmitted, c.ID)
	}
	if len(resubmitted) > 0 {
		logger.Info("Resubmitted pending contact pushes", "count", len(resubmitted))
	}
	return resubmitted
}

// apply creates or updates the local projection of remote pinned to groupID.
// existing is nil when no local contact carries the remote ID.
func (uc *ContactSyncUseCase) apply(ctx context.Context, org *model.Org, existing *model.Contact, remote *model.RemoteContact, groupID model.GroupID) (ApplyOutcome, error) {
	incoming := model.ContactFromRemote(org.ID, remote, groupID, org.ChatField())

	if existing == nil {
		if _, err := uc.repo.Contact().Create(ctx, incoming); err != nil {
			return "", goerr.Wrap(err, "failed to create contact", goerr.V("external_id", remote.ExternalID))
		}
		return ApplyCreated, nil
	}

	field := org.ChatField()
	if existing.IsActive && !model.ContactsDiffer(existing.AsRemote(field), incoming.AsRemote(field)) {
		return ApplyUnchanged, nil
	}

	existing.Apply(incoming)
	if _, err := uc.repo.Contact().Update(ctx, existing); err != nil {
		return "", goerr.Wrap(err, "failed to update contact", goerr.V("external_id", remote.ExternalID))
	}
	return ApplyUpdated, nil
}

// ApplyRemoteContact applies a single remote contact pinned to groupID, the
// way a sync pass would.
func (uc *ContactSyncUseCase) ApplyRemoteContact(ctx context.Context, orgID model.OrgID, remote *model.RemoteContact, groupID model.GroupID) (ApplyOutcome, error) {
	org, err := uc.orgs.Get(orgID)
	if err != nil {
		return "", err
	}
	if len(remote.URNs) == 0 {
		return "", goerr.Wrap(ErrNoURN, "cannot apply remote contact", goerr.V("external_id", remote.ExternalID))
	}

	existing, err := uc.repo.Contact().GetByExternalID(ctx, orgID, remote.ExternalID)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			return "", goerr.Wrap(err, "failed to get contact", goerr.V("external_id", remote.ExternalID))
		}
		existing = nil
	}

	return uc.apply(ctx, org, existing, remote, groupID)
}

func (uc *ContactSyncUseCase) saveStatus(ctx context.Context, orgID model.OrgID, started time.Time, result *model.SyncResult, syncErr error) error {
	status, err := uc.repo.SyncStatus().Get(ctx, orgID)
	if err != nil {
		return goerr.Wrap(err, "failed to get sync status")
	}

	status.OrgID = orgID
	status.LastAttempt = started
	if syncErr != nil {
		status.LastError = syncErr.Error()
	} else {
		status.LastSuccess = started
		status.LastError = ""
		status.Created = len(result.Created)
		status.Updated = len(result.Updated)
		status.Deleted = len(result.Deleted)
		status.Failed = len(result.Failed)
	}

	if err := uc.repo.SyncStatus().Save(ctx, status); err != nil {
		return goerr.Wrap(err, "failed to save sync status")
	}
	return nil
}

// SyncStatus returns the last sync outcome of an org
func (uc *ContactSyncUseCase) SyncStatus(ctx context.Context, orgID model.OrgID) (*model.SyncStatus, error) {
	if _, err := uc.orgs.Get(orgID); err != nil {
		return nil, err
	}
	status, err := uc.repo.SyncStatus().Get(ctx, orgID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get sync status", goerr.V("org_id", orgID))
	}
	return status, nil
}

// SyncAllReport holds the per org outcome of SyncAll
type SyncAllReport struct {
	Results map[model.OrgID]*model.SyncResult
	Errors  map[model.OrgID]error
}

// SyncAll synchronizes every active org. A failing org is logged and does
// not stop the others.
func (uc *ContactSyncUseCase) SyncAll(ctx context.Context) *SyncAllReport {
	report := &SyncAllReport{
		Results: make(map[model.OrgID]*model.SyncResult),
		Errors:  make(map[model.OrgID]error),
	}
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)

	for _, org := range uc.orgs.Active() {
		eg.Go(func() error {
			result, err := uc.SyncOrg(ctx, org.ID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Errors[org.ID] = err
				_ = errutil.Handle(ctx, err, "contact sync failed")
				return nil
			}
			report.Results[org.ID] = result
			return nil
		})
	}

	_ = eg.Wait()
	return report
}
