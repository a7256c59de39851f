package interfaces

import (
	"context"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
)

// ContactRepository stores the local contact roster of each org.
// Every write is atomic per record; there is no transaction spanning records.
type ContactRepository interface {
	// Create stores a new contact. An empty ID is replaced with a generated one
	// and CreatedAt/UpdatedAt are set.
	Create(ctx context.Context, contact *model.Contact) (*model.Contact, error)

	// Update overwrites an existing contact and refreshes UpdatedAt.
	// Returns ErrNotFound if the contact does not exist.
	Update(ctx context.Context, contact *model.Contact) (*model.Contact, error)

	// Get retrieves a contact by its local ID
	Get(ctx context.Context, orgID model.OrgID, id model.ContactID) (*model.Contact, error)

	// GetByExternalID retrieves a contact by its RapidPro ID
	GetByExternalID(ctx context.Context, orgID model.OrgID, externalID model.ExternalID) (*model.Contact, error)

	// List returns every contact of the org, active or not
	List(ctx context.Context, orgID model.OrgID) ([]*model.Contact, error)

	// ListByRoom returns the active contacts of a room, most recently updated first
	ListByRoom(ctx context.Context, orgID model.OrgID, groupID model.GroupID) ([]*model.Contact, error)
}
