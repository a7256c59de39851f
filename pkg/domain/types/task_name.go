package types

import "fmt"

// TaskName identifies a background task handled by the task queue
type TaskName string

const (
	TaskPushContactChange TaskName = "push_contact_change"
	TaskSyncOrgContacts   TaskName = "sync_org_contacts"
	TaskSyncAllContacts   TaskName = "sync_all_contacts"
	TaskUpdateRoomGroups  TaskName = "update_room_groups"
)

// AllTaskNames returns all known task names
func AllTaskNames() []TaskName {
	return []TaskName{
		TaskPushContactChange,
		TaskSyncOrgContacts,
		TaskSyncAllContacts,
		TaskUpdateRoomGroups,
	}
}

// IsValid checks if the task name is known
func (n TaskName) IsValid() bool {
	switch n {
	case TaskPushContactChange,
		TaskSyncOrgContacts,
		TaskSyncAllContacts,
		TaskUpdateRoomGroups:
		return true
	default:
		return false
	}
}

func (n TaskName) String() string {
	return string(n)
}

// ParseTaskName parses a string into a TaskName
func ParseTaskName(s string) (TaskName, error) {
	n := TaskName(s)
	if !n.IsValid() {
		return "", fmt.Errorf("invalid task name: %s", s)
	}
	return n, nil
}
