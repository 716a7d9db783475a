package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"classbattle/internal/model"
)

// ErrAlreadyFinalized is returned when a summary already exists for the
// session. Finalization is exactly-once; racing end requests hit this and
// treat it as success.
var ErrAlreadyFinalized = errors.New("session already finalized")

// SummaryStore persists the one immutable summary record per session.
type SummaryStore interface {
	Insert(ctx context.Context, summary *model.SessionSummary) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.SessionSummary, error)
}

type summaryRepo struct {
	collection *mongo.Collection
}

// NewSummaryRepo creates a summary store backed by the "summaries"
// collection. The summary uses the session id as its document id, so the
// unique index on _id is what enforces exactly-once finalization.
func NewSummaryRepo(db *mongo.Database) SummaryStore {
	return &summaryRepo{
		collection: db.Collection("summaries"),
	}
}

func (r *summaryRepo) Insert(ctx context.Context, summary *model.SessionSummary) error {
	_, err := r.collection.InsertOne(ctx, summary)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyFinalized
		}
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

func (r *summaryRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	var summary model.SessionSummary
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&summary)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}
