package model

import (
	"maps"
	"slices"
)

// ExternalID is the contact identifier assigned by RapidPro
type ExternalID string

// GroupID is a RapidPro group identifier. Groups tracked by an org are its rooms.
type GroupID string

// RemoteContact is the RapidPro representation of a contact. It is a transfer
// object used for comparison and merge and is never persisted locally.
type RemoteContact struct {
	ExternalID ExternalID
	Name       string
	URNs       []URN
	Fields     map[string]string
	Groups     []GroupID
}

// Clone returns a deep copy of the contact
func (c *RemoteContact) Clone() *RemoteContact {
	if c == nil {
		return nil
	}
	return &RemoteContact{
		ExternalID: c.ExternalID,
		Name:       c.Name,
		URNs:       slices.Clone(c.URNs),
		Fields:     maps.Clone(c.Fields),
		Groups:     slices.Clone(c.Groups),
	}
}

// TrackedGroups returns the contact's groups that are members of tracked,
// in the order the contact lists them.
func (c *RemoteContact) TrackedGroups(tracked []GroupID) []GroupID {
	set := groupSet(tracked)
	var result []GroupID
	for _, g := range c.Groups {
		if _, ok := set[g]; ok && !slices.Contains(result, g) {
			result = append(result, g)
		}
	}
	return result
}

func groupSet(groups []GroupID) map[GroupID]struct{} {
	set := make(map[GroupID]struct{}, len(groups))
	for _, g := range groups {
		set[g] = struct{}{}
	}
	return set
}
