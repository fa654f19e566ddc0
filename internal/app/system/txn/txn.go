// Package txn runs multi-document writes inside a MongoDB transaction and
// falls back to sequential writes on deployments that cannot host one
// (a standalone mongod in development).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction. The context passed to fn carries the
// session; every store call in fn must use it.
//
// When the server rejects transactions, Run logs a warning and calls fn
// once more without a session. Production deployments run on a replica set
// and never take that path.
func Run(ctx context.Context, db *mongo.Database, logger *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fallback(ctx, logger, err, fn)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return fallback(ctx, logger, err, fn)
	}
	return err
}

func fallback(ctx context.Context, logger *zap.Logger, cause error, fn func(ctx context.Context) error) error {
	if logger != nil {
		logger.Warn("transactions unavailable; running without one", zap.Error(cause))
	}
	return fn(ctx)
}

// IsNotSupported reports whether err means the deployment cannot run
// transactions or sessions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	has := func(a, b string) bool { return strings.Contains(msg, a) && strings.Contains(msg, b) }
	return has("transaction", "replica set") ||
		has("session", "not supported") ||
		has("transaction", "session") ||
		has("illegal", "operation")
}
