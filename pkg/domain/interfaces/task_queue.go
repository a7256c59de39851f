package interfaces

import (
	"context"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
)

// TaskQueue submits background work. Delivery is at least once and failed
// tasks are retried, so handlers must be idempotent.
type TaskQueue interface {
	Submit(ctx context.Context, task *model.Task) error
}
