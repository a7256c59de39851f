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

type contactRepository struct {
	mu       sync.RWMutex
	contacts map[model.OrgID]map[model.ContactID]*model.Contact
}

var _ interfaces.ContactRepository = &contactRepository{}

func newContactRepository() *contactRepository {
	return &contactRepository{
		contacts: make(map[model.OrgID]map[model.ContactID]*model.Contact),
	}
}

func copyContact(c *model.Contact) *model.Contact {
	copied := *c
	return &copied
}

func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyContact(contact)
	if created.ID == "" {
		created.ID = model.NewContactID()
	}

	org, ok := r.contacts[created.OrgID]
	if !ok {
		org = make(map[model.ContactID]*model.Contact)
		r.contacts[created.OrgID] = org
	}
	if _, exists := org[created.ID]; exists {
		return nil, goerr.New("contact already exists", goerr.V("org_id", created.OrgID), goerr.V("id", created.ID))
	}

	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	org[created.ID] = created

	return copyContact(created), nil
}

func (r *contactRepository) Update(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.contacts[contact.OrgID][contact.ID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "contact not found",
			goerr.V("org_id", contact.OrgID), goerr.V("id", contact.ID))
	}

	updated := copyContact(contact)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	r.contacts[contact.OrgID][contact.ID] = updated

	return copyContact(updated), nil
}

func (r *contactRepository) Get(ctx context.Context, orgID model.OrgID, id model.ContactID) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contacts[orgID][id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "contact not found", goerr.V("org_id", orgID), goerr.V("id", id))
	}
	return copyContact(c), nil
}

func (r *contactRepository) GetByExternalID(ctx context.Context, orgID model.OrgID, externalID model.ExternalID) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if externalID != "" {
		for _, c := range r.contacts[orgID] {
			if c.ExternalID == externalID {
				return copyContact(c), nil
			}
		}
	}
	return nil, goerr.Wrap(ErrNotFound, "contact not found",
		goerr.V("org_id", orgID), goerr.V("external_id", externalID))
}

func (r *contactRepository) List(ctx context.Context, orgID model.OrgID) ([]*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Contact, 0, len(r.contacts[orgID]))
	for _, c := range r.contacts[orgID] {
		result = append(result, copyContact(c))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *contactRepository) ListByRoom(ctx context.Context, orgID model.OrgID, groupID model.GroupID) ([]*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Contact
	for _, c := range r.contacts[orgID] {
		if c.GroupID == groupID && c.IsActive {
			result = append(result, copyContact(c))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}
