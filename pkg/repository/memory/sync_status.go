package memory

import (
	"context"
	"sync"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
)

type syncStatusRepository struct {
	mu       sync.RWMutex
	statuses map[model.OrgID]*model.SyncStatus
}

var _ interfaces.SyncStatusRepository = &syncStatusRepository{}

func newSyncStatusRepository() *syncStatusRepository {
	return &syncStatusRepository{
		statuses: make(map[model.OrgID]*model.SyncStatus),
	}
}

func (r *syncStatusRepository) Get(ctx context.Context, orgID model.OrgID) (*model.SyncStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.statuses[orgID]
	if !ok {
		return &model.SyncStatus{OrgID: orgID}, nil
	}
	copied := *status
	return &copied, nil
}

func (r *syncStatusRepository) Save(ctx context.Context, status *model.SyncStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *status
	r.statuses[status.OrgID] = &copied
	return nil
}
