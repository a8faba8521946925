package mongo

import (
	"context"
	"errors"

	"github.com/yoockh/intake/internal/models"
	"github.com/yoockh/intake/internal/repositories"
	"github.com/yoockh/intake/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database, collection string) repositories.SessionRepository {
	return &sessionRepo{col: db.Collection(collection)}
}

func (r *sessionRepo) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var s models.Session
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Put(ctx context.Context, s *models.Session) error {
	if s == nil || s.SessionID == "" {
		return errors.New("session with id is required")
	}
	_, err := r.col.ReplaceOne(ctx,
		bson.M{"session_id": s.SessionID},
		s,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *sessionRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"session_id": sessionID})
	return err
}
