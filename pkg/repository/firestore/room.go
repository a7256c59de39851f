package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type roomRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.RoomRepository = &roomRepository{}

func newRoomRepository(client *firestore.Client) *roomRepository {
	return &roomRepository{
		client: client,
	}
}

type roomDoc struct {
	OrgID     string    `firestore:"org_id"`
	GroupID   string    `firestore:"group_id"`
	Name      string    `firestore:"name"`
	IsActive  bool      `firestore:"is_active"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (r *roomRepository) collection(orgID model.OrgID) *firestore.CollectionRef {
	return orgDoc(r.client, r.collectionPrefix, string(orgID)).Collection(roomsCollection)
}

func fromRoomDoc(doc *roomDoc) *model.Room {
	return &model.Room{
		OrgID:     model.OrgID(doc.OrgID),
		GroupID:   model.GroupID(doc.GroupID),
		Name:      doc.Name,
		IsActive:  doc.IsActive,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (r *roomRepository) Save(ctx context.Context, room *model.Room) error {
	ref := r.collection(room.OrgID).Doc(string(room.GroupID))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		doc := &roomDoc{
			OrgID:     string(room.OrgID),
			GroupID:   string(room.GroupID),
			Name:      room.Name,
			IsActive:  room.IsActive,
			CreatedAt: now,
			UpdatedAt: now,
		}

		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			var existing roomDoc
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to unmarshal room")
			}
			doc.CreatedAt = existing.CreatedAt
		case status.Code(err) != codes.NotFound:
			return goerr.Wrap(err, "failed to get room")
		}

		return tx.Set(ref, doc)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to save room", goerr.V("org_id", room.OrgID), goerr.V("group_id", room.GroupID))
	}
	return nil
}

func (r *roomRepository) Get(ctx context.Context, orgID model.OrgID, groupID model.GroupID) (*model.Room, error) {
	snap, err := r.collection(orgID).Doc(string(groupID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "room not found", goerr.V("org_id", orgID), goerr.V("group_id", groupID))
		}
		return nil, goerr.Wrap(err, "failed to get room", goerr.V("org_id", orgID), goerr.V("group_id", groupID))
	}

	var doc roomDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal room", goerr.V("group_id", groupID))
	}
	return fromRoomDoc(&doc), nil
}

func (r *roomRepository) List(ctx context.Context, orgID model.OrgID) ([]*model.Room, error) {
	iter := r.collection(orgID).OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var rooms []*model.Room
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate rooms", goerr.V("org_id", orgID))
		}

		var doc roomDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal room", goerr.V("docID", snap.Ref.ID))
		}
		rooms = append(rooms, fromRoomDoc(&doc))
	}

	return rooms, nil
}
