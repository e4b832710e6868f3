// Package dbmongo stores attachment blobs in MongoDB GridFS.
package dbmongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"botrelay/internal/config"
)

const connectTimeout = 10 * time.Second

// MongoClient owns the connection and the attachment bucket.
type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
	GridFS   *gridfs.Bucket
}

func clientOptions(c *config.Config) *options.ClientOptions {
	return options.Client().
		ApplyURI(c.GetMongoURI()).
		SetAppName("botrelay").
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)
}

// NewMongoConnection connects, pings the primary and opens the configured bucket.
func NewMongoConnection(ctx context.Context, c *config.Config) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions(c))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB at %s:%s: %w", c.MongoDB.Host, c.MongoDB.Port, err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(c.MongoDB.Database)
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(c.MongoDB.Bucket))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to open GridFS bucket %q: %w", c.MongoDB.Bucket, err)
	}

	return &MongoClient{Client: client, Database: db, GridFS: bucket}, nil
}

func (mc *MongoClient) Close(ctx context.Context) error {
	return mc.Client.Disconnect(ctx)
}
