package config

import (
	"context"
	"errors"
	"os"
	"time"

	mongorepo "github.com/yoockh/interviewer/internal/repositories/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDatabase returns the configured database handle.
func MongoDatabase() (*mongo.Database, error) {
	if MongoClient == nil {
		return nil, errors.New("MongoClient is nil; call InitMongo() first")
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "interviewer"
	}
	return MongoClient.Database(dbName), nil
}

// EnsureMongoIndexes creates the session collection indexes. With a positive
// ttl, states untouched for ttl are expired by the server.
func EnsureMongoIndexes(ttl time.Duration) error {
	db, err := MongoDatabase()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updated := options.Index().SetName("by_updated")
	if ttl > 0 {
		updated = options.Index().
			SetName("ttl_updated_at").
			SetExpireAfterSeconds(int32(ttl / time.Second))
	}

	_, err = db.Collection(mongorepo.SessionCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_session_id").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "interview_record_id", Value: 1}},
			Options: options.Index().SetName("by_interview_record").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: updated,
		},
	})
	return err
}
