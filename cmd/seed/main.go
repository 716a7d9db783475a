package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classbattle/config"
	"classbattle/internal/model"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.Database)

	classroom := model.Classroom{
		ID:        uuid.New().String(),
		Name:      "Period 3 Science",
		TeacherID: "host_demo",
		MemberIDs: []string{"student_ada", "student_bo", "student_cy"},
	}
	if _, err := db.Collection("classrooms").InsertOne(ctx, &classroom); err != nil {
		log.Fatalf("Failed to seed classroom: %v", err)
	}

	now := time.Now()
	session := model.Session{
		ID:        uuid.New().String(),
		ClassID:   classroom.ID,
		ClassName: classroom.Name,
		HostID:    classroom.TeacherID,
		Status:    model.SessionLive,
		Roster:    []model.Participant{},
		EventLog:  []string{fmt.Sprintf("battle opened for %s", classroom.Name)},
		CreatedAt: now,
		StartedAt: now,
	}
	if _, err := db.Collection("sessions").InsertOne(ctx, &session); err != nil {
		log.Fatalf("Failed to seed session: %v", err)
	}

	fmt.Printf("Seeded classroom %s with live session %s\n", classroom.ID, session.ID)
}
