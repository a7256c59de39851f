package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// ContactID is the local identifier of a contact
type ContactID string

// NewContactID generates a new random contact ID
func NewContactID() ContactID {
	return ContactID(uuid.NewString())
}

// ErrContactOrgMismatch is returned when a contact refers to a room of another org
var ErrContactOrgMismatch = goerr.New("contact and room belong to different orgs")

// Contact is the local record of a RapidPro contact pinned to one room.
// ExternalID is empty only between local creation and the first successful push.
type Contact struct {
	ID         ContactID
	OrgID      OrgID
	ExternalID ExternalID
	Identity   DisplayIdentity
	URN        URN
	GroupID    GroupID
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the fields required to persist a contact
func (c *Contact) Validate() error {
	if c.OrgID == "" {
		return goerr.New("contact org ID is required", goerr.V("id", c.ID))
	}
	if c.GroupID == "" {
		return goerr.New("contact room is required", goerr.V("id", c.ID))
	}
	if err := c.URN.Validate(); err != nil {
		return goerr.Wrap(err, "invalid contact URN", goerr.V("id", c.ID))
	}
	return nil
}

// AsRemote converts the contact to RapidPro shape. The chat name is stored
// in the org specific custom field chatNameField.
func (c *Contact) AsRemote(chatNameField string) *RemoteContact {
	remote := &RemoteContact{
		ExternalID: c.ExternalID,
		Name:       c.Identity.FullName,
		Fields:     map[string]string{chatNameField: c.Identity.ChatName},
	}
	if c.URN != "" {
		remote.URNs = []URN{c.URN}
	}
	if c.GroupID != "" {
		remote.Groups = []GroupID{c.GroupID}
	}
	return remote
}

// ContactFromRemote builds the local projection of a RapidPro contact pinned
// to groupID. The first URN becomes the primary address.
func ContactFromRemote(orgID OrgID, remote *RemoteContact, groupID GroupID, chatNameField string) *Contact {
	c := &Contact{
		OrgID:      orgID,
		ExternalID: remote.ExternalID,
		Identity: DisplayIdentity{
			FullName: remote.Name,
			ChatName: remote.Fields[chatNameField],
		},
		GroupID:  groupID,
		IsActive: true,
	}
	if len(remote.URNs) > 0 {
		c.URN = remote.URNs[0]
	}
	return c
}

// Apply copies the synchronized attributes of src onto c and reactivates it
func (c *Contact) Apply(src *Contact) {
	c.Identity = src.Identity
	c.URN = src.URN
	c.GroupID = src.GroupID
	c.IsActive = true
}

// Participant returns the contact as a conversation participant
func (c *Contact) Participant() Participant {
	return Participant{
		Kind:     ParticipantKindContact,
		ID:       string(c.ID),
		Identity: c.Identity,
		Fallback: c.URN.Path(),
	}
}
