package model

// DisplayIdentity is the naming shared by every participant of a room
type DisplayIdentity struct {
	FullName string
	ChatName string
}

// Name returns the full name, falling back to the chat name
func (d DisplayIdentity) Name() string {
	if d.FullName != "" {
		return d.FullName
	}
	return d.ChatName
}

// ParticipantKind discriminates the Participant variants
type ParticipantKind string

const (
	ParticipantKindContact   ParticipantKind = "contact"
	ParticipantKindStaffUser ParticipantKind = "staff_user"
)

// Participant is someone taking part in a room conversation, either a
// RapidPro contact or a staff user of the org.
type Participant struct {
	Kind     ParticipantKind
	ID       string
	Identity DisplayIdentity
	// Fallback is shown when the identity carries no name at all
	Fallback string
}

// NewStaffParticipant creates a staff user participant
func NewStaffParticipant(id string, identity DisplayIdentity) Participant {
	return Participant{
		Kind:     ParticipantKindStaffUser,
		ID:       id,
		Identity: identity,
		Fallback: id,
	}
}

// DisplayName returns the name shown for the participant
func (p Participant) DisplayName() string {
	if name := p.Identity.Name(); name != "" {
		return name
	}
	return p.Fallback
}

func (p Participant) IsContact() bool {
	return p.Kind == ParticipantKindContact
}
