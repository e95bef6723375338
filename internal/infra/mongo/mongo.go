package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"zippty/order-service/internal/conf"
	mongorepo "zippty/order-service/internal/repository/mongo"
)

// NewMongo connects, pings the primary and ensures the order indexes exist.
func NewMongo(ctx context.Context, c conf.Mongo) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, c.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(c.URI).
		SetServerSelectionTimeout(c.ConnectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	db := client.Database(c.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, db, nil
}
