package model

import "time"

// Room is a RapidPro group tracked by an org. Active rooms form the org's
// primary group set; a contact belongs to exactly one of them.
type Room struct {
	OrgID     OrgID
	GroupID   GroupID
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveGroupIDs returns the group IDs of the active rooms
func ActiveGroupIDs(rooms []*Room) []GroupID {
	ids := make([]GroupID, 0, len(rooms))
	for _, r := range rooms {
		if r.IsActive {
			ids = append(ids, r.GroupID)
		}
	}
	return ids
}
