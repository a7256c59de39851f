package interfaces

import (
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned by every repository backend when a record does not exist
var ErrNotFound = goerr.New("not found")

// Repository defines the interface for data persistence
type Repository interface {
	Contact() ContactRepository
	Room() RoomRepository
	SyncStatus() SyncStatusRepository

	Close() error
}
