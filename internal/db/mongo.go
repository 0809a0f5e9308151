package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cinerec/internal/config"
)

// Connect abre el cliente de Mongo y verifica con un ping. Los repos
// reciben el *mongo.Database por constructor, no hay estado global.
func Connect(ctx context.Context, cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo: conectando a %s: %w", cfg.MongoURI, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo: ping falló: %w", err)
	}
	return client.Database(cfg.MongoDB), nil
}
