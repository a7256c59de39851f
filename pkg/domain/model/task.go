package model

import (
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/types"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// TaskID identifies a submitted task
type TaskID string

// Task is a unit of background work. Only the fields relevant to Name are set.
type Task struct {
	ID        TaskID           `json:"id"`
	Name      types.TaskName   `json:"name"`
	OrgID     OrgID            `json:"org_id,omitempty"`
	ContactID ContactID        `json:"contact_id,omitempty"`
	Change    types.ChangeType `json:"change,omitempty"`
	GroupIDs  []GroupID        `json:"group_ids,omitempty"`
	Attempt   int              `json:"attempt"`
	CreatedAt time.Time        `json:"created_at"`
}

func newTask(name types.TaskName) *Task {
	return &Task{
		ID:        TaskID(uuid.NewString()),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// NewPushContactTask creates a task pushing a local change of a contact to RapidPro
func NewPushContactTask(orgID OrgID, contactID ContactID, change types.ChangeType) *Task {
	t := newTask(types.TaskPushContactChange)
	t.OrgID = orgID
	t.ContactID = contactID
	t.Change = change
	return t
}

// NewSyncOrgTask creates a task running a pull reconciliation for one org
func NewSyncOrgTask(orgID OrgID) *Task {
	t := newTask(types.TaskSyncOrgContacts)
	t.OrgID = orgID
	return t
}

// NewSyncAllTask creates a task running a pull reconciliation for every active org
func NewSyncAllTask() *Task {
	return newTask(types.TaskSyncAllContacts)
}

// NewUpdateRoomGroupsTask creates a task replacing the rooms of an org
func NewUpdateRoomGroupsTask(orgID OrgID, groupIDs []GroupID) *Task {
	t := newTask(types.TaskUpdateRoomGroups)
	t.OrgID = orgID
	t.GroupIDs = groupIDs
	return t
}

// Validate checks that the task carries the arguments its name requires
func (t *Task) Validate() error {
	if !t.Name.IsValid() {
		return goerr.New("unknown task name", goerr.V("name", t.Name))
	}

	switch t.Name {
	case types.TaskPushContactChange:
		if t.OrgID == "" || t.ContactID == "" {
			return goerr.New("push task requires org and contact", goerr.V("task_id", t.ID))
		}
		if !t.Change.IsValid() {
			return goerr.New("push task has invalid change type", goerr.V("task_id", t.ID), goerr.V("change", t.Change))
		}
	case types.TaskSyncOrgContacts, types.TaskUpdateRoomGroups:
		if t.OrgID == "" {
			return goerr.New("task requires org", goerr.V("task_id", t.ID), goerr.V("name", t.Name))
		}
	case types.TaskSyncAllContacts:
	}
	return nil
}
