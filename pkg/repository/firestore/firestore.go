package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is the backend independent not found error
var ErrNotFound = interfaces.ErrNotFound

const (
	orgsCollection       = "orgs"
	contactsCollection   = "contacts"
	roomsCollection      = "rooms"
	syncStatusCollection = "sync_status"
)

// ContactsCollection is the collection ID of contacts under each org document.
// Composite indexes are declared on it.
const ContactsCollection = contactsCollection

type Firestore struct {
	client     *firestore.Client
	contact    *contactRepository
	room       *roomRepository
	syncStatus *syncStatusRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix isolates every top level collection behind prefix
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.contact.collectionPrefix = prefix
		f.room.collectionPrefix = prefix
		f.syncStatus.collectionPrefix = prefix
	}
}

// New connects to Firestore. An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:     client,
		contact:    newContactRepository(client),
		room:       newRoomRepository(client),
		syncStatus: newSyncStatusRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Contact() interfaces.ContactRepository {
	return f.contact
}

func (f *Firestore) Room() interfaces.RoomRepository {
	return f.room
}

func (f *Firestore) SyncStatus() interfaces.SyncStatusRepository {
	return f.syncStatus
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func prefixed(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

// orgDoc returns the parent document holding an org's sub collections
func orgDoc(client *firestore.Client, prefix, orgID string) *firestore.DocumentRef {
	return client.Collection(prefixed(prefix, orgsCollection)).Doc(orgID)
}
