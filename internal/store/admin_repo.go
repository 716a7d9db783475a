package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AdminRepo looks up platform-administrator roles from the "admins"
// collection. It satisfies the role-lookup collaborator the host-authority
// check queries.
type AdminRepo struct {
	collection *mongo.Collection
}

// NewAdminRepo creates a role lookup backed by the "admins" collection,
// where each document is keyed by user id and optionally carries an email.
func NewAdminRepo(db *mongo.Database) *AdminRepo {
	return &AdminRepo{
		collection: db.Collection("admins"),
	}
}

// IsAdministrator reports whether the given user id or email belongs to a
// platform administrator.
func (r *AdminRepo) IsAdministrator(ctx context.Context, userID, email string) (bool, error) {
	clauses := []bson.M{}
	if userID != "" {
		clauses = append(clauses, bson.M{"_id": userID})
	}
	if email != "" {
		clauses = append(clauses, bson.M{"email": email})
	}
	if len(clauses) == 0 {
		return false, nil
	}

	err := r.collection.FindOne(ctx, bson.M{"$or": clauses}).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
