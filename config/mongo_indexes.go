package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const SessionsCollection = "intake_sessions"

// EnsureMongoIndexes creates the session indexes. With ttl > 0 sessions are
// expired by MongoDB ttl after their creation.
func EnsureMongoIndexes(dbName string, ttl time.Duration) error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_session_id").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_status_created"),
		},
	}
	if ttl > 0 {
		models = append(models, mongo.IndexModel{
			Keys: bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().
				SetName("ttl_created_at").
				SetExpireAfterSeconds(int32(ttl.Seconds())),
		})
	}

	_, err := MongoClient.Database(dbName).Collection(SessionsCollection).Indexes().CreateMany(ctx, models)
	return err
}
