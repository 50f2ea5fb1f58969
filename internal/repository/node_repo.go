package repository

import (
	"context"

	"wolfden/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NodeRepo stores the shared flow-node templates
type NodeRepo interface {
	GetByCode(ctx context.Context, code string) (*model.FlowNode, error)
	ListAll(ctx context.Context) ([]*model.FlowNode, error)
	Upsert(ctx context.Context, node *model.FlowNode) error
}

type nodeRepo struct {
	collection *mongo.Collection
}

// NewNodeRepo creates a new node repo
func NewNodeRepo(db *mongo.Database) NodeRepo {
	return &nodeRepo{
		collection: db.Collection("flow_nodes"),
	}
}

func (r *nodeRepo) GetByCode(ctx context.Context, code string) (*model.FlowNode, error) {
	var node model.FlowNode
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&node)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // node not found
		}
		return nil, err
	}
	return &node, nil
}

func (r *nodeRepo) ListAll(ctx context.Context) ([]*model.FlowNode, error) {
	cur, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var nodes []*model.FlowNode
	if err := cur.All(ctx, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *nodeRepo) Upsert(ctx context.Context, node *model.FlowNode) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"code": node.Code},
		node,
		options.Replace().SetUpsert(true),
	)
	return err
}
