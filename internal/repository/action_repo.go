package repository

import (
	"context"

	"wolfden/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActionRepo is the append-only action log
type ActionRepo interface {
	Append(ctx context.Context, rec *model.ActionRecord) error
	Last(ctx context.Context, matchID string) (*model.ActionRecord, error)
	ListByRound(ctx context.Context, matchID string, round int) ([]*model.ActionRecord, error)
}

type actionRepo struct {
	collection *mongo.Collection
}

// NewActionRepo creates a new action repo
func NewActionRepo(db *mongo.Database) ActionRepo {
	return &actionRepo{
		collection: db.Collection("actions"),
	}
}

func (r *actionRepo) Append(ctx context.Context, rec *model.ActionRecord) error {
	_, err := r.collection.InsertOne(ctx, rec)
	return err
}

func (r *actionRepo) Last(ctx context.Context, matchID string) (*model.ActionRecord, error) {
	var rec model.ActionRecord
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"matchId": matchID}, opts).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // no actions yet
		}
		return nil, err
	}
	return &rec, nil
}

func (r *actionRepo) ListByRound(ctx context.Context, matchID string, round int) ([]*model.ActionRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.collection.Find(ctx, bson.M{"matchId": matchID, "round": round}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []*model.ActionRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
