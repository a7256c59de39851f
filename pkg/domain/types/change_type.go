package types

import "fmt"

// ChangeType identifies the kind of local mutation that has to be pushed to RapidPro
type ChangeType string

const (
	ChangeTypeCreated ChangeType = "created"
	ChangeTypeUpdated ChangeType = "updated"
	ChangeTypeDeleted ChangeType = "deleted"
)

// AllChangeTypes returns all valid change types
func AllChangeTypes() []ChangeType {
	return []ChangeType{
		ChangeTypeCreated,
		ChangeTypeUpdated,
		ChangeTypeDeleted,
	}
}

// IsValid checks if the change type is valid
func (c ChangeType) IsValid() bool {
	switch c {
	case ChangeTypeCreated,
		ChangeTypeUpdated,
		ChangeTypeDeleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the change type
func (c ChangeType) String() string {
	return string(c)
}

// ParseChangeType parses a string into a ChangeType
func ParseChangeType(s string) (ChangeType, error) {
	c := ChangeType(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid change type: %s", s)
	}
	return c, nil
}
