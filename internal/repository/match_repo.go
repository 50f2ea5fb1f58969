package repository

import (
	"context"
	"time"

	"wolfden/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MatchRepo stores per-match flow state. ClaimAdvance and
// CommitTransition are the only writers of the node/deadline fields;
// both are conditional on the stored deadline so concurrent advance
// attempts serialize at the storage layer without any in-process lock.
type MatchRepo interface {
	Create(ctx context.Context, match *model.MatchFlowState) error
	GetByID(ctx context.Context, id string) (*model.MatchFlowState, error)
	ListActive(ctx context.Context) ([]*model.MatchFlowState, error)
	UpdateRemaining(ctx context.Context, id string, remaining int, beatAt time.Time) error

	// ClaimAdvance moves the deadline from oldDeadline to leaseUntil,
	// succeeding only if the stored deadline still equals oldDeadline.
	// A false return means another process already owns this advance.
	ClaimAdvance(ctx context.Context, id string, oldDeadline, leaseUntil time.Time) (bool, error)

	// CommitTransition replaces the full match record, succeeding only
	// if the stored deadline still equals the lease this process holds.
	CommitTransition(ctx context.Context, match *model.MatchFlowState, lease time.Time) (bool, error)
}

type matchRepo struct {
	collection *mongo.Collection
}

// NewMatchRepo creates a new match repo
func NewMatchRepo(db *mongo.Database) MatchRepo {
	return &matchRepo{
		collection: db.Collection("matches"),
	}
}

func (r *matchRepo) Create(ctx context.Context, match *model.MatchFlowState) error {
	_, err := r.collection.InsertOne(ctx, match)
	return err
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (*model.MatchFlowState, error) {
	var match model.MatchFlowState
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&match)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // match not found
		}
		return nil, err
	}
	return &match, nil
}

func (r *matchRepo) ListActive(ctx context.Context) ([]*model.MatchFlowState, error) {
	cur, err := r.collection.Find(ctx, bson.M{
		"nodeCode": bson.M{"$ne": ""},
		"endedAt":  bson.M{"$exists": false},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var matches []*model.MatchFlowState
	if err := cur.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *matchRepo) UpdateRemaining(ctx context.Context, id string, remaining int, beatAt time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"remainingSec": remaining, "lastBeatAt": beatAt}},
	)
	return err
}

func (r *matchRepo) ClaimAdvance(ctx context.Context, id string, oldDeadline, leaseUntil time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "deadline": oldDeadline},
		bson.M{"$set": bson.M{"deadline": leaseUntil}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *matchRepo) CommitTransition(ctx context.Context, match *model.MatchFlowState, lease time.Time) (bool, error) {
	res, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": match.ID, "deadline": lease},
		match,
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
