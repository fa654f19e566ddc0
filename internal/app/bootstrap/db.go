// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/store/oauthstate"
	"github.com/dalemusser/fieldaudit/internal/app/system/blobstore"
	"github.com/dalemusser/fieldaudit/internal/app/system/indexes"
	"github.com/dalemusser/fieldaudit/internal/app/system/ratelimit"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/validators"
	"github.com/dalemusser/fieldaudit/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens MongoDB, the optional Redis client and the blob store.
// Anything opened before a failure is closed again.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetAppName("fieldaudit")
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return deps, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return deps, fmt.Errorf("ping mongo: %w", err)
	}
	deps.MongoClient = client
	deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	if appCfg.RedisURL != "" {
		rc, err := ratelimit.Connect(ctx, appCfg.RedisURL)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, err
		}
		deps.Redis = rc
		logger.Info("connected to Redis for login rate limiting")
	}

	blobs, err := openBlobs(ctx, appCfg)
	if err != nil {
		_ = Shutdown(context.Background(), coreCfg, appCfg, deps, logger)
		return DBDeps{}, err
	}
	deps.Blobs = blobs
	deps.Jobs = workers.NewRunner(logger)
	logger.Info("blob storage ready", zap.String("type", appCfg.StorageType))

	return deps, nil
}

func openBlobs(ctx context.Context, appCfg AppConfig) (blobstore.Store, error) {
	switch appCfg.StorageType {
	case "memory":
		return blobstore.NewMemory(), nil
	case "s3":
		s, err := blobstore.NewS3(ctx, blobstore.S3Config{
			Region:   appCfg.StorageS3Region,
			Bucket:   appCfg.StorageS3Bucket,
			Prefix:   appCfg.StorageS3Prefix,
			Endpoint: appCfg.StorageS3Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("open s3 storage: %w", err)
		}
		return s, nil
	default:
		return blobstore.NewLocal(appCfg.StorageLocalPath, appCfg.StorageLocalURL), nil
	}
}

// EnsureSchema applies collection validators and indexes. Every step is
// idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase
	if err := validators.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("collection validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("indexes: %w", err)
	}
	if err := audit.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("security event indexes: %w", err)
	}
	if err := oauthstate.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("oauth state indexes: %w", err)
	}
	logger.Info("schema ensured")
	return nil
}
