package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type roomRepository struct {
	mu    sync.RWMutex
	rooms map[model.OrgID]map[model.GroupID]*model.Room
}

var _ interfaces.RoomRepository = &roomRepository{}

func newRoomRepository() *roomRepository {
	return &roomRepository{
		rooms: make(map[model.OrgID]map[model.GroupID]*model.Room),
	}
}

func copyRoom(r *model.Room) *model.Room {
	copied := *r
	return &copied
}

func (r *roomRepository) Save(ctx context.Context, room *model.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	org, ok := r.rooms[room.OrgID]
	if !ok {
		org = make(map[model.GroupID]*model.Room)
		r.rooms[room.OrgID] = org
	}

	saved := copyRoom(room)
	now := time.Now().UTC()
	if existing, ok := org[room.GroupID]; ok {
		saved.CreatedAt = existing.CreatedAt
	} else if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now
	org[room.GroupID] = saved

	return nil
}

func (r *roomRepository) Get(ctx context.Context, orgID model.OrgID, groupID model.GroupID) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[orgID][groupID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "room not found", goerr.V("org_id", orgID), goerr.V("group_id", groupID))
	}
	return copyRoom(room), nil
}

func (r *roomRepository) List(ctx context.Context, orgID model.OrgID) ([]*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Room, 0, len(r.rooms[orgID]))
	for _, room := range r.rooms[orgID] {
		result = append(result, copyRoom(room))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}
