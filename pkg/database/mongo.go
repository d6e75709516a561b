package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"resilinked/backend/config"
)

// MongoClient connected client plus the notifications collection
type MongoClient struct {
	Client     *mongo.Client
	Database   *mongo.Database
	Collection *mongo.Collection
}

// NewMongo connects, pings, and makes sure the notification indexes exist
func NewMongo(cfg *config.MongoConfig, logger *zap.Logger) (*MongoClient, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	database := client.Database(cfg.Database)
	coll := database.Collection(cfg.Collection)

	if err := EnsureNotificationIndexes(ctx, coll); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongodb connected",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection),
	)

	return &MongoClient{Client: client, Database: database, Collection: coll}, nil
}

// EnsureNotificationIndexes creates the recipient-scoped indexes
func EnsureNotificationIndexes(ctx context.Context, coll *mongo.Collection) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "isRead", Value: 1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "isSeen", Value: 1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create notification indexes: %w", err)
	}
	return nil
}

// Close disconnects the client
func (mc *MongoClient) Close(ctx context.Context) error {
	return mc.Client.Disconnect(ctx)
}
