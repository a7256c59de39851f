package interfaces

import (
	"context"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
)

// SyncNotifier reports the outcome of a contact sync pass to operators
type SyncNotifier interface {
	NotifySync(ctx context.Context, org *model.Org, result *model.SyncResult, syncErr error) error
}
