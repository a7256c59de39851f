package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/usecase"
)

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrOrgNotFound),
		errors.Is(err, usecase.ErrContactNotFound),
		errors.Is(err, usecase.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrGroupNotFound),
		errors.Is(err, usecase.ErrRoomInactive),
		errors.Is(err, model.ErrContactOrgMismatch):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrNoURN):
		return http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrTaskQueueNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type contactResponse struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id,omitempty"`
	FullName   string    `json:"full_name"`
	ChatName   string    `json:"chat_name"`
	URN        string    `json:"urn"`
	Group      string    `json:"group"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toContactResponse(c *model.Contact) contactResponse {
	return contactResponse{
		ID:         string(c.ID),
		ExternalID: string(c.ExternalID),
		FullName:   c.Identity.FullName,
		ChatName:   c.Identity.ChatName,
		URN:        c.URN.String(),
		Group:      string(c.GroupID),
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

type roomResponse struct {
	Group    string `json:"group"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

func toRoomResponses(rooms []*model.Room) []roomResponse {
	resp := make([]roomResponse, len(rooms))
	for i, r := range rooms {
		resp[i] = roomResponse{
			Group:    string(r.GroupID),
			Name:     r.Name,
			IsActive: r.IsActive,
		}
	}
	return resp
}

type participantResponse struct {
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type syncStatusResponse struct {
	LastAttempt *time.Time `json:"last_attempt,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	Created     int        `json:"created"`
	Updated     int        `json:"updated"`
	Deleted     int        `json:"deleted"`
	Failed      int        `json:"failed"`
}

func toSyncStatusResponse(s *model.SyncStatus) syncStatusResponse {
	resp := syncStatusResponse{
		LastError: s.LastError,
		Created:   s.Created,
		Updated:   s.Updated,
		Deleted:   s.Deleted,
		Failed:    s.Failed,
	}
	if !s.LastAttempt.IsZero() {
		resp.LastAttempt = &s.LastAttempt
	}
	if !s.LastSuccess.IsZero() {
		resp.LastSuccess = &s.LastSuccess
	}
	return resp
}
