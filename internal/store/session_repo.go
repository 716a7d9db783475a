package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classbattle/internal/model"
)

// ErrSessionNotFound is returned by Mutate when the referenced session has
// no record.
var ErrSessionNotFound = errors.New("session not found")

// liveStatuses matches canonical live sessions plus records written by
// older clients under the aliases "open" and "active".
var liveStatuses = []string{
	string(model.SessionLive), "open", "active",
}

// SessionStore is the only surface through which the session document is
// read or written. Mutate is the transactional primitive: every
// roster-mutating operation runs inside one read-modify-write transaction so
// concurrent joins to the same session serialize instead of losing updates.
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	Mutate(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error)
	FindLiveByClasses(ctx context.Context, classIDs []string) ([]*model.Session, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a session store backed by the "sessions" collection.
func NewSessionRepo(db *mongo.Database) SessionStore {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	normalize(&session)
	return &session, nil
}

// Mutate reads the session, applies fn to the decoded document and writes
// the result back, all inside one Mongo transaction. fn returning an error
// aborts the transaction and leaves the record untouched. The session handed
// to fn already has legacy status aliases normalized.
func (r *sessionRepo) Mutate(ctx context.Context, id string, fn func(*model.Session) error) (*model.Session, error) {
	mongoSess, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("start store session: %w", err)
	}
	defer mongoSess.EndSession(ctx)

	result, err := mongoSess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var session model.Session
		if err := r.collection.FindOne(sc, bson.M{"_id": id}).Decode(&session); err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		normalize(&session)

		if err := fn(&session); err != nil {
			return nil, err
		}

		if _, err := r.collection.ReplaceOne(sc, bson.M{"_id": id}, &session); err != nil {
			return nil, err
		}
		return &session, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.Session), nil
}

// FindLiveByClasses returns live sessions for the given class ids, newest
// started first. An empty classIDs slice matches every class — discovery
// falls back to "all live sessions" when membership data is unavailable.
// Callers are expected to keep classIDs within the store's query-parameter
// bound; DiscoveryService chunks larger sets.
func (r *sessionRepo) FindLiveByClasses(ctx context.Context, classIDs []string) ([]*model.Session, error) {
	filter := bson.M{"status": bson.M{"$in": liveStatuses}}
	if len(classIDs) > 0 {
		filter["classId"] = bson.M{"$in": classIDs}
	}

	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	for cursor.Next(ctx) {
		var session model.Session
		if err := cursor.Decode(&session); err != nil {
			return nil, err
		}
		normalize(&session)
		sessions = append(sessions, &session)
	}
	return sessions, cursor.Err()
}

// normalize rewrites legacy status aliases at the adapter boundary so
// consumers only ever see canonical statuses.
func normalize(s *model.Session) {
	s.Status = model.NormalizeStatus(string(s.Status))
}
