package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}
	db := MongoDatabase()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// applications indexes
	applications := db.Collection("applications")
	_, err := applications.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// At most one application per candidate per job. The duplicate check
		// in the service is only the friendly error path; this index is the
		// actual guarantee under concurrent submits.
		{
			Keys: bson.D{{Key: "job_id", Value: 1}, {Key: "candidate_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_job_candidate").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "candidate_id", Value: 1}, {Key: "applied_at", Value: -1}},
			Options: options.Index().SetName("by_candidate_applied"),
		},
		{
			Keys:    bson.D{{Key: "job_id", Value: 1}, {Key: "applied_at", Value: -1}},
			Options: options.Index().SetName("by_job_applied"),
		},
	})
	if err != nil {
		return err
	}

	// jobs indexes
	jobs := db.Collection("jobs")
	_, err = jobs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "skills", Value: "text"},
			},
			Options: options.Index().SetName("text_search"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "location", Value: 1}, {Key: "type", Value: 1}},
			Options: options.Index().SetName("by_category_location_type"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_created"),
		},
		{
			Keys:    bson.D{{Key: "company", Value: 1}},
			Options: options.Index().SetName("by_company"),
		},
	})
	if err != nil {
		return err
	}

	// users indexes
	users := db.Collection("users")
	_, err = users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("uniq_email").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_role_created"),
		},
	})
	return err
}
