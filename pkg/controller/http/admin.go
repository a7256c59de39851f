package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/usecase"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/errutil"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/safe"
	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
)

// AdminUseCase is the set of operations exposed by the admin API
type AdminUseCase interface {
	SubmitSync(ctx context.Context, orgID model.OrgID) (*model.Task, error)
	SyncStatus(ctx context.Context, orgID model.OrgID) (*model.SyncStatus, error)
	ListRooms(ctx context.Context, orgID model.OrgID) ([]*model.Room, error)
	UpdateRoomGroups(ctx context.Context, orgID model.OrgID, groupIDs []model.GroupID) ([]*model.Room, error)
	RoomParticipants(ctx context.Context, orgID model.OrgID, groupID model.GroupID) ([]model.Participant, error)
	GetContact(ctx context.Context, orgID model.OrgID, id model.ContactID) (*model.Contact, error)
	CreateContact(ctx context.Context, orgID model.OrgID, input usecase.CreateContactInput) (*model.Contact, error)
	UpdateContact(ctx context.Context, orgID model.OrgID, id model.ContactID, input usecase.UpdateContactInput) (*model.Contact, error)
	ReleaseContact(ctx context.Context, orgID model.OrgID, id model.ContactID) error
}

// NewAdminUseCase exposes uc through AdminUseCase
func NewAdminUseCase(uc *usecase.UseCases) AdminUseCase {
	return &adminUseCase{uc: uc}
}

type adminUseCase struct {
	uc *usecase.UseCases
}

func (a *adminUseCase) SubmitSync(ctx context.Context, orgID model.OrgID) (*model.Task, error) {
	return a.uc.SubmitSync(ctx, orgID)
}

func (a *adminUseCase) SyncStatus(ctx context.Context, orgID model.OrgID) (*model.SyncStatus, error) {
	return a.uc.ContactSync.SyncStatus(ctx, orgID)
}

func (a *adminUseCase) ListRooms(ctx context.Context, orgID model.OrgID) ([]*model.Room, error) {
	return a.uc.Room.List(ctx, orgID)
}

func (a *adminUseCase) UpdateRoomGroups(ctx context.Context, orgID model.OrgID, groupIDs []model.GroupID) ([]*model.Room, error) {
	return a.uc.Room.UpdateRoomGroups(ctx, orgID, groupIDs)
}

func (a *adminUseCase) RoomParticipants(ctx context.Context, orgID model.OrgID, groupID model.GroupID) ([]model.Participant, error) {
	return a.uc.Contact.RoomParticipants(ctx, orgID, groupID)
}

func (a *adminUseCase) GetContact(ctx context.Context, orgID model.OrgID, id model.ContactID) (*model.Contact, error) {
	return a.uc.Contact.Get(ctx, orgID, id)
}

func (a *adminUseCase) CreateContact(ctx context.Context, orgID model.OrgID, input usecase.CreateContactInput) (*model.Contact, error) {
	return a.uc.Contact.Create(ctx, orgID, input)
}

func (a *adminUseCase) UpdateContact(ctx context.Context, orgID model.OrgID, id model.ContactID, input usecase.UpdateContactInput) (*model.Contact, error) {
	return a.uc.Contact.Update(ctx, orgID, id, input)
}

func (a *adminUseCase) ReleaseContact(ctx context.Context, orgID model.OrgID, id model.ContactID) error {
	return a.uc.Contact.Release(ctx, orgID, id)
}

func orgIDParam(r *http.Request) model.OrgID {
	return model.OrgID(chi.URLParam(r, "orgID"))
}

func contactIDParam(r *http.Request) model.ContactID {
	return model.ContactID(chi.URLParam(r, "contactID"))
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "failed to decode request body")
	}
	return nil
}

func submitSyncHandler(uc AdminUseCase) http.HandlerFunc {
	type response struct {
		TaskID string `json:"task_id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		task, err := uc.SubmitSync(ctx, orgIDParam(r))
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}
		safe.WriteJSON(ctx, w, http.StatusAccepted, response{TaskID: string(task.ID)})
	}
}

func syncStatusHandler(uc AdminUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status, err := uc.SyncStatus(ctx, orgIDParam(r))
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}
		safe.WriteJSON(ctx, w, http.StatusOK, toSyncStatusResponse(status))
	}
}

func listRoomsHandler(uc AdminUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		rooms, err := uc.ListRooms(ctx, orgIDParam(r))
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}
		safe.WriteJSON(ctx, w, http.StatusOK, toRoomResponses(rooms))
	}
}

func updateRoomsHandler(uc AdminUseCase) http.HandlerFunc {
	type request struct {
		Groups []string `json:"groups"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req request
		if err := decodeJSON(r, &req); err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}

		groupIDs := make([]model.GroupID, len(req.Groups))
		for i, g := range req.Groups {
			groupIDs[i] = model.GroupID(g)
		}

		rooms, err := uc.UpdateRoomGroups(ctx, orgIDParam(r), groupIDs)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}
		safe.WriteJSON(ctx, w, http.StatusOK, toRoomResponses(rooms))
	}
}

func roomParticipantsHandler(uc AdminUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		groupID := model.GroupID(chi.URLParam(r, "groupID"))

		participants, err := uc.RoomParticipants(ctx, orgIDParam(r), groupID)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}

		resp := make([]participantResponse, len(participants))
		for i, p := range participants {
			resp[i] = participantResponse{
				Kind:        string(p.Kind),
				ID:          p.ID,
				DisplayName: p.DisplayName(),
			}
		}
		safe.WriteJSON(ctx, w, http.StatusOK, resp)
	}
}

func getContactHandler(uc AdminUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		contact, err := uc.GetContact(ctx, orgIDParam(r), contactIDParam(r))
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}
		safe.WriteJSON(ctx, w, http.StatusOK, toContactResponse(contact))
	}
}

func createContactHandler(uc AdminUseCase) http.HandlerFunc {
	type request struct {
		FullName string `json:"full_name"`
		ChatName string `json:"chat_name"`
		URN      string `json:"urn"`
		Group    string `json:"group"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req request
		if err := decodeJSON(r, &req); err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}

		contact, err := uc.CreateContact(ctx, orgIDParam(r), usecase.CreateContactInput{
			FullName: req.FullName,
			ChatName: req.ChatName,
			URN:      req.URN,
			GroupID:  model.GroupID(req.Group),
		})
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}
		safe.WriteJSON(ctx, w, http.StatusCreated, toContactResponse(contact))
	}
}

func updateContactHandler(uc AdminUseCase) http.HandlerFunc {
	type request struct {
		FullName *string `json:"full_name"`
		ChatName *string `json:"chat_name"`
		URN      *string `json:"urn"`
		Group    *string `json:"group"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req request
		if err := decodeJSON(r, &req); err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}

		input := usecase.UpdateContactInput{
			FullName: req.FullName,
			ChatName: req.ChatName,
			URN:      req.URN,
		}
		if req.Group != nil {
			g := model.GroupID(*req.Group)
			input.GroupID = &g
		}

		contact, err := uc.UpdateContact(ctx, orgIDParam(r), contactIDParam(r), input)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}
		safe.WriteJSON(ctx, w, http.StatusOK, toContactResponse(contact))
	}
}

func releaseContactHandler(uc AdminUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := uc.ReleaseContact(ctx, orgIDParam(r), contactIDParam(r)); err != nil {
			errutil.HandleHTTP(ctx, w, err, statusOf(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
