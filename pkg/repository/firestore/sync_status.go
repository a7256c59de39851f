package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/interfaces"
	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type syncStatusRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.SyncStatusRepository = &syncStatusRepository{}

func newSyncStatusRepository(client *firestore.Client) *syncStatusRepository {
	return &syncStatusRepository{
		client: client,
	}
}

type syncStatusDoc struct {
	OrgID       string    `firestore:"org_id"`
	LastAttempt time.Time `firestore:"last_attempt"`
	LastSuccess time.Time `firestore:"last_success"`
	LastError   string    `firestore:"last_error"`
	Created     int       `firestore:"created"`
	Updated     int       `firestore:"updated"`
	Deleted     int       `firestore:"deleted"`
	Failed      int       `firestore:"failed"`
}

func (r *syncStatusRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, syncStatusCollection))
}

func (r *syncStatusRepository) Get(ctx context.Context, orgID model.OrgID) (*model.SyncStatus, error) {
	snap, err := r.collection().Doc(string(orgID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &model.SyncStatus{OrgID: orgID}, nil
		}
		return nil, goerr.Wrap(err, "failed to get sync status", goerr.V("org_id", orgID))
	}

	var doc syncStatusDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal sync status", goerr.V("org_id", orgID))
	}

	return &model.SyncStatus{
		OrgID:       model.OrgID(doc.OrgID),
		LastAttempt: doc.LastAttempt,
		LastSuccess: doc.LastSuccess,
		LastError:   doc.LastError,
		Created:     doc.Created,
		Updated:     doc.Updated,
		Deleted:     doc.Deleted,
		Failed:      doc.Failed,
	}, nil
}

func (r *syncStatusRepository) Save(ctx context.Context, s *model.SyncStatus) error {
	doc := &syncStatusDoc{
		OrgID:       string(s.OrgID),
		LastAttempt: s.LastAttempt,
		LastSuccess: s.LastSuccess,
		LastError:   s.LastError,
		Created:     s.Created,
		Updated:     s.Updated,
		Deleted:     s.Deleted,
		Failed:      s.Failed,
	}
	if _, err := r.collection().Doc(string(s.OrgID)).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to save sync status", goerr.V("org_id", s.OrgID))
	}
	return nil
}
