package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"classbattle/internal/model"
)

// ClassroomStore reads class membership for discovery filtering.
type ClassroomStore interface {
	Create(ctx context.Context, classroom *model.Classroom) error
	GetByID(ctx context.Context, id string) (*model.Classroom, error)
	ListForMember(ctx context.Context, userID string) ([]*model.Classroom, error)
}

type classroomRepo struct {
	collection *mongo.Collection
}

// NewClassroomRepo creates a classroom store backed by the "classrooms"
// collection.
func NewClassroomRepo(db *mongo.Database) ClassroomStore {
	return &classroomRepo{
		collection: db.Collection("classrooms"),
	}
}

func (r *classroomRepo) Create(ctx context.Context, classroom *model.Classroom) error {
	_, err := r.collection.InsertOne(ctx, classroom)
	if err != nil {
		return fmt.Errorf("insert classroom: %w", err)
	}
	return nil
}

func (r *classroomRepo) GetByID(ctx context.Context, id string) (*model.Classroom, error) {
	var classroom model.Classroom
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&classroom)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &classroom, nil
}

func (r *classroomRepo) ListForMember(ctx context.Context, userID string) ([]*model.Classroom, error) {
	// A user belongs to a class either as a member or as its teacher.
	filter := bson.M{"$or": []bson.M{
		{"memberIds": userID},
		{"teacherId": userID},
	}}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var classrooms []*model.Classroom
	for cursor.Next(ctx) {
		var classroom model.Classroom
		if err := cursor.Decode(&classroom); err != nil {
			return nil, err
		}
		classrooms = append(classrooms, &classroom)
	}
	return classrooms, cursor.Err()
}
