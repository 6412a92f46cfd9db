package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config captures the settings required to reach the registry database.
type Config struct {
	URI      string
	Database string
	AppName  string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, storeErr("mongo connect", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, storeErr("mongo ping", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the indexes of every registry collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := NewAccountRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("account indexes: %w", err)
	}
	if err := NewProfileRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("profile indexes: %w", err)
	}
	return nil
}
