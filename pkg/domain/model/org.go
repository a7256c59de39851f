package model

import (
	"crypto/subtle"

	"github.com/m-mizutani/goerr/v2"
)

// OrgID identifies a tenant
type OrgID string

// DefaultChatNameField is the RapidPro field holding a contact's chat name
const DefaultChatNameField = "chat_name"

// ErrOrgNotFound is returned when an org is not found in the registry
var ErrOrgNotFound = goerr.New("org not found")

// Org holds the per tenant RapidPro settings
type Org struct {
	ID            OrgID
	Name          string
	APIURL        string
	APIToken      string `masq:"secret"`
	WebhookSecret string `masq:"secret"`
	ChatNameField string
	Rooms         []GroupID
	IsActive      bool
}

// ChatField returns the configured chat name field or the default one
func (o *Org) ChatField() string {
	if o.ChatNameField == "" {
		return DefaultChatNameField
	}
	return o.ChatNameField
}

// VerifyWebhookSecret compares secret with the org's webhook secret in
// constant time. An org without a secret accepts no webhook.
func (o *Org) VerifyWebhookSecret(secret string) bool {
	if o.WebhookSecret == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(o.WebhookSecret), []byte(secret)) == 1
}

// OrgRegistry holds org configurations in registration order
type OrgRegistry struct {
	entries map[OrgID]*Org
	order   []OrgID
}

// NewOrgRegistry creates a new empty OrgRegistry
func NewOrgRegistry() *OrgRegistry {
	return &OrgRegistry{
		entries: make(map[OrgID]*Org),
	}
}

// Register adds an org to the registry, replacing any org with the same ID
func (r *OrgRegistry) Register(org *Org) {
	if _, exists := r.entries[org.ID]; !exists {
		r.order = append(r.order, org.ID)
	}
	r.entries[org.ID] = org
}

// Get retrieves an org by ID
func (r *OrgRegistry) Get(id OrgID) (*Org, error) {
	org, ok := r.entries[id]
	if !ok {
		return nil, goerr.Wrap(ErrOrgNotFound, "org not found", goerr.V("org_id", id))
	}
	return org, nil
}

// List returns all orgs in registration order
func (r *OrgRegistry) List() []*Org {
	result := make([]*Org, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.entries[id])
	}
	return result
}

// Active returns the active orgs in registration order
func (r *OrgRegistry) Active() []*Org {
	var result []*Org
	for _, org := range r.List() {
		if org.IsActive {
			result = append(result, org)
		}
	}
	return result
}
