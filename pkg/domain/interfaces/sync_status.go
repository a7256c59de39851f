package interfaces

import (
	"context"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
)

// SyncStatusRepository stores the last sync outcome of each org
type SyncStatusRepository interface {
	// Get returns the status of the org. A zero status is returned if the org
	// was never synchronized.
	Get(ctx context.Context, orgID model.OrgID) (*model.SyncStatus, error)

	Save(ctx context.Context, status *model.SyncStatus) error
}
