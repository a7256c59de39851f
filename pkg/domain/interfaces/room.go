package interfaces

import (
	"context"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
)

// RoomRepository stores the RapidPro groups tracked by each org
type RoomRepository interface {
	// Save creates or replaces the room identified by its org and group
	Save(ctx context.Context, room *model.Room) error

	Get(ctx context.Context, orgID model.OrgID, groupID model.GroupID) (*model.Room, error)

	List(ctx context.Context, orgID model.OrgID) ([]*model.Room, error)
}
