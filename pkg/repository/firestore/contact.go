package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type contactRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.ContactRepository = &contactRepository{}

func newContactRepository(client *firestore.Client) *contactRepository {
	return &contactRepository{
		client: client,
	}
}

// contactDoc is the Firestore persistence model
type contactDoc struct {
	ID         string    `firestore:"id"`
	OrgID      string    `firestore:"org_id"`
	ExternalID string    `firestore:"external_id"`
	FullName   string    `firestore:"full_name"`
	ChatName   string    `firestore:"chat_name"`
	URN        string    `firestore:"urn"`
	GroupID    string    `firestore:"group_id"`
	IsActive   bool      `firestore:"is_active"`
	CreatedAt  time.Time `firestore:"created_at"`
	UpdatedAt  time.Time `firestore:"updated_at"`
}

func (r *contactRepository) collection(orgID model.OrgID) *firestore.CollectionRef {
	return orgDoc(r.client, r.collectionPrefix, string(orgID)).Collection(contactsCollection)
}

func toContactDoc(c *model.Contact) *contactDoc {
	return &contactDoc{
		ID:         string(c.ID),
		OrgID:      string(c.OrgID),
		ExternalID: string(c.ExternalID),
		FullName:   c.Identity.FullName,
		ChatName:   c.Identity.ChatName,
		URN:        string(c.URN),
		GroupID:    string(c.GroupID),
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromContactDoc(doc *contactDoc) *model.Contact {
	return &model.Contact{
		ID:         model.ContactID(doc.ID),
		OrgID:      model.OrgID(doc.OrgID),
		ExternalID: model.ExternalID(doc.ExternalID),
		Identity: model.DisplayIdentity{
			FullName: doc.FullName,
			ChatName: doc.ChatName,
		},
		URN:       model.URN(doc.URN),
		GroupID:   model.GroupID(doc.GroupID),
		IsActive:  doc.IsActive,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func decodeContact(snap *firestore.DocumentSnapshot) (*model.Contact, error) {
	var doc contactDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal contact", goerr.V("docID", snap.Ref.ID))
	}
	return fromContactDoc(&doc), nil
}

func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	created := *contact
	if created.ID == "" {
		created.ID = model.NewContactID()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection(created.OrgID).Doc(string(created.ID)).Create(ctx, toContactDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create contact",
			goerr.V("org_id", created.OrgID), goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *contactRepository) Update(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	ref := r.collection(contact.OrgID).Doc(string(contact.ID))
	updated := *contact

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "contact not found",
					goerr.V("org_id", contact.OrgID), goerr.V("id", contact.ID))
			}
			return goerr.Wrap(err, "failed to get contact")
		}

		existing, err := decodeContact(snap)
		if err != nil {
			return err
		}

		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()
		return tx.Set(ref, toContactDoc(&updated))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update contact",
			goerr.V("org_id", contact.OrgID), goerr.V("id", contact.ID))
	}

	return &updated, nil
}

func (r *contactRepository) Get(ctx context.Context, orgID model.OrgID, id model.ContactID) (*model.Contact, error) {
	snap, err := r.collection(orgID).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "contact not found", goerr.V("org_id", orgID), goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get contact", goerr.V("org_id", orgID), goerr.V("id", id))
	}

	return decodeContact(snap)
}

func (r *contactRepository) GetByExternalID(ctx context.Context, orgID model.OrgID, externalID model.ExternalID) (*model.Contact, error) {
	if externalID == "" {
		return nil, goerr.Wrap(ErrNotFound, "contact not found", goerr.V("org_id", orgID))
	}

	iter := r.collection(orgID).Where("external_id", "==", string(externalID)).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(ErrNotFound, "contact not found",
			goerr.V("org_id", orgID), goerr.V("external_id", externalID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query contact",
			goerr.V("org_id", orgID), goerr.V("external_id", externalID))
	}

	return decodeContact(snap)
}

func (r *contactRepository) List(ctx context.Context, orgID model.OrgID) ([]*model.Contact, error) {
	return r.list(ctx, r.collection(orgID).OrderBy("created_at", firestore.Asc))
}

func (r *contactRepository) ListByRoom(ctx context.Context, orgID model.OrgID, groupID model.GroupID) ([]*model.Contact, error) {
	q := r.collection(orgID).
		Where("group_id", "==", string(groupID)).
		Where("is_active", "==", true).
		OrderBy("updated_at", firestore.Desc)
	return r.list(ctx, q)
}

func (r *contactRepository) list(ctx context.Context, q firestore.Query) ([]*model.Contact, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var contacts []*model.Contact
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate contacts")
		}

		c, err := decodeContact(snap)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	return contacts, nil
}
