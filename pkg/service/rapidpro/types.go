package rapidpro

import (
	"context"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned when RapidPro answers 404 for a contact or group
var ErrNotFound = goerr.New("rapidpro resource not found")

// Service provides access to the contacts and groups of one RapidPro workspace
type Service interface {
	// GetContact retrieves a single contact by its RapidPro ID
	GetContact(ctx context.Context, id model.ExternalID) (*model.RemoteContact, error)

	// GetContacts retrieves every contact belonging to any of groups. All pages
	// are read before returning.
	GetContacts(ctx context.Context, groups []model.GroupID) ([]*model.RemoteContact, error)

	// CreateContact creates a contact and returns it with its assigned ID
	CreateContact(ctx context.Context, contact *model.RemoteContact) (*model.RemoteContact, error)

	// UpdateContact overwrites name, URNs, fields and groups of an existing contact
	UpdateContact(ctx context.Context, contact *model.RemoteContact) (*model.RemoteContact, error)

	DeleteContact(ctx context.Context, id model.ExternalID) error

	GetGroups(ctx context.Context) ([]*Group, error)

	GetGroup(ctx context.Context, id model.GroupID) (*Group, error)
}

// Factory builds the Service of an org
type Factory interface {
	Client(org *model.Org) (Service, error)
}

// Group is a RapidPro contact group
type Group struct {
	ID   model.GroupID
	Name string
	Size int
}
