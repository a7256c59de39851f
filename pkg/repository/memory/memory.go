package memory

import (
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
)

// ErrNotFound is the backend independent not found error
var ErrNotFound = interfaces.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository used for development and tests
type Memory struct {
	contact    *contactRepository
	room       *roomRepository
	syncStatus *syncStatusRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		contact:    newContactRepository(),
		room:       newRoomRepository(),
		syncStatus: newSyncStatusRepository(),
	}
}

func (m *Memory) Contact() interfaces.ContactRepository {
	return m.contact
}

func (m *Memory) Room() interfaces.RoomRepository {
	return m.room
}

func (m *Memory) SyncStatus() interfaces.SyncStatusRepository {
	return m.syncStatus
}

func (m *Memory) Close() error {
	return nil
}
