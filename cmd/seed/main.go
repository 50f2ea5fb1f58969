package main

import (
	"context"
	"log"
	"time"

	"wolfden/internal/config"
	"wolfden/internal/repository"
	"wolfden/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
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

	nodeRepo := repository.NewNodeRepo(client.Database(cfg.MongoDB))

	nodes := service.DefaultGraph()
	for _, node := range nodes {
		if err := nodeRepo.Upsert(ctx, node); err != nil {
			log.Fatalf("Failed to upsert node %s: %v", node.Code, err)
		}
		log.Printf("seeded node %-22s %ds  %s", node.Code, node.DurationSec, node.Label)
	}

	log.Printf("Done: %d flow nodes seeded", len(nodes))
}
