// Package cli implements auditctl, the operator command line: seeding
// districts, bootstrapping identities and exporting records without going
// through the HTTP surface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dalemusser/fieldaudit/internal/app/store/mongostore"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/blobstore"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Backend is what a command operates on.
type Backend struct {
	Repo  repo.Repository
	Blobs blobstore.Store
}

// Opener connects to the store named by the global flags. The returned
// close function is never nil.
type Opener func(ctx context.Context, uri, database string, logger *zap.Logger) (Backend, func(), error)

// Options configures NewRoot. Zero values select stdout and MongoDB.
type Options struct {
	Out  io.Writer
	Open Opener
}

type globals struct {
	mongoURI string
	database string
	verbose  bool
}

// runner holds the state one invocation shares across its subcommand.
type runner struct {
	g      globals
	out    io.Writer
	open   Opener
	logger *zap.Logger
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// NewRoot builds the auditctl command tree.
func NewRoot(opts Options) *cobra.Command {
	rn := &runner{out: opts.Out, open: opts.Open}
	if rn.out == nil {
		rn.out = os.Stdout
	}
	if rn.open == nil {
		rn.open = OpenMongo
	}

	root := &cobra.Command{
		Use:           "auditctl",
		Short:         "Operator tools for the fieldaudit service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if rn.g.verbose {
				rn.logger, err = zap.NewDevelopment()
			} else {
				rn.logger, err = zap.NewProduction()
			}
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rn.logger != nil {
				_ = rn.logger.Sync()
			}
		},
	}
	root.SetOut(rn.out)

	pf := root.PersistentFlags()
	pf.StringVar(&rn.g.mongoURI, "mongo-uri", envOr("FIELDAUDIT_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI (env FIELDAUDIT_MONGO_URI)")
	pf.StringVar(&rn.g.database, "mongo-database", envOr("FIELDAUDIT_MONGO_DATABASE", "fieldaudit"), "MongoDB database name (env FIELDAUDIT_MONGO_DATABASE)")
	pf.BoolVarP(&rn.g.verbose, "verbose", "v", false, "Development logging")

	root.AddCommand(
		rn.seedDistrictsCmd(),
		rn.createSuperuserCmd(),
		rn.provisionCoordinatorCmd(),
		rn.exportCmd(),
	)
	return root
}

// with opens the backend, runs fn and closes the backend again.
func (rn *runner) with(ctx context.Context, fn func(ctx context.Context, b Backend) error) error {
	b, closeFn, err := rn.open(ctx, rn.g.mongoURI, rn.g.database, rn.logger)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, b)
}

// OpenMongo is the production Opener. Exports never read blobs, so the
// blob store is in memory.
func OpenMongo(ctx context.Context, uri, database string, logger *zap.Logger) (Backend, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("auditctl"))
	if err != nil {
		return Backend{}, func() {}, fmt.Errorf("connect mongo: %w", err)
	}
	closeFn := func() { _ = client.Disconnect(context.Background()) }

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		closeFn()
		return Backend{}, func() {}, fmt.Errorf("ping mongo: %w", err)
	}
	return Backend{
		Repo:  mongostore.New(client.Database(database), logger),
		Blobs: blobstore.NewMemory(),
	}, closeFn, nil
}
