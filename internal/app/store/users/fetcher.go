package userstore

import (
	"context"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fetcher implements auth.UserFetcher on top of any identity store, so a
// deactivated identity loses its session on the next request.
type Fetcher struct {
	users repo.UserStore
}

// NewFetcher returns a Fetcher reading from users.
func NewFetcher(users repo.UserStore) *Fetcher {
	return &Fetcher{users: users}
}

// FetchUser returns nil when the id is malformed, the identity is gone or
// inactive, or the lookup fails.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := timeouts.WithShort(ctx)
	defer cancel()

	u, err := f.users.GetByID(ctx, oid)
	if err != nil || !u.IsActive {
		return nil
	}
	return &auth.SessionUser{
		ID:        u.ID.Hex(),
		LoginName: u.LoginName,
		Name:      u.FullName,
		Role:      u.Role(),
	}
}
