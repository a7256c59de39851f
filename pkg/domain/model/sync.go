package model

import "time"

// SyncFailureReason explains why a remote contact was left out of a sync pass
type SyncFailureReason string

const (
	SyncFailureNoURN         SyncFailureReason = "no_urn"
	SyncFailureNoRoom        SyncFailureReason = "no_room"
	SyncFailureAmbiguousRoom SyncFailureReason = "ambiguous_room"
)

// SyncFailure is a remote contact that could not be represented locally
type SyncFailure struct {
	ExternalID ExternalID
	Reason     SyncFailureReason
}

// SyncResult is the outcome of one pull reconciliation pass
type SyncResult struct {
	Created []ExternalID
	Updated []ExternalID
	Deleted []ExternalID
	Failed  []SyncFailure
	// Resubmitted lists local contacts whose create push was submitted again
	Resubmitted []ContactID
}

// HasChanges reports whether the pass created, updated or deleted anything
func (r *SyncResult) HasChanges() bool {
	return len(r.Created)+len(r.Updated)+len(r.Deleted) > 0
}

// FailedIDs returns the external IDs of the flagged contacts
func (r *SyncResult) FailedIDs() []ExternalID {
	ids := make([]ExternalID, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.ExternalID
	}
	return ids
}

// SyncStatus is the last known sync outcome of an org
type SyncStatus struct {
	OrgID       OrgID
	LastAttempt time.Time
	LastSuccess time.Time
	LastError   string
	Created     int
	Updated     int
	Deleted     int
	Failed      int
}
