// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/fieldaudit/internal/app/system/blobstore"
	"github.com/dalemusser/fieldaudit/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends opened by ConnectDB.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil unless redis_url is configured.
	Redis *redis.Client

	Blobs blobstore.Store

	// Jobs runs background maintenance; started in Startup.
	Jobs *workers.Runner
}
