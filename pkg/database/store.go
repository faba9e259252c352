package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/pkg/config"
	"github.com/noah-isme/class-control-api/pkg/docstore"
)

// OpenStore connects the configured document store backend. The returned
// closer releases the underlying client.
func OpenStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logr *zap.Logger) (docstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreMemory, "":
		logr.Warn("using in-memory document store, data is lost on restart")
		return docstore.NewMemoryStore(), func() {}, nil

	case config.StoreFirestore:
		client, err := NewFirestore(ctx, cfg.Firestore)
		if err != nil {
			return nil, nil, fmt.Errorf("connect firestore: %w", err)
		}
		return docstore.NewFirestoreStore(client), func() { _ = client.Close() }, nil

	case config.StorePostgres:
		db, err := NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		var opts []docstore.PostgresOption
		if cfg.Store.RedisNotifier {
			if redisClient == nil {
				_ = db.Close()
				return nil, nil, fmt.Errorf("redis notifier enabled but redis is unavailable")
			}
			opts = append(opts, docstore.WithNotifier(docstore.NewRedisNotifier(redisClient, "")))
		}
		store := docstore.NewPostgresStore(db, opts...)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = db.Close() }, nil

	case config.StoreMongo:
		client, db, err := NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		store := docstore.NewMongoStore(db, cfg.Mongo.Collection)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return store, func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
