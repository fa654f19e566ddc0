// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TTL is how long a Google sign-in may take between redirect and callback.
const TTL = 10 * time.Minute

// State is one pending OAuth round trip.
type State struct {
	State     string    `bson:"state"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Keeper saves a state token and later consumes it exactly once.
type Keeper interface {
	Save(ctx context.Context, state string, expiresAt time.Time) error
	// Consume removes the token and reports whether it was live.
	Consume(ctx context.Context, state string) (bool, error)
}

// Store keeps state tokens in the oauth_states collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// EnsureIndexes creates the lookup index and the TTL index that reaps
// abandoned round trips.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_oauth_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_oauth_state"),
		},
	})
	return err
}

func (s *Store) Save(ctx context.Context, state string, expiresAt time.Time) error {
	_, err := s.c.InsertOne(ctx, State{
		State:     state,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	})
	return err
}

func (s *Store) Consume(ctx context.Context, state string) (bool, error) {
	var st State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

// Memory is a process-local Keeper for single-instance deployments and tests.
type Memory struct {
	mu  sync.Mutex
	m   map[string]State
	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]State), now: time.Now}
}

func (m *Memory) Save(_ context.Context, state string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[state] = State{State: state, ExpiresAt: expiresAt, CreatedAt: m.now()}
	return nil
}

func (m *Memory) Consume(_ context.Context, state string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.m[state]
	if !ok {
		return false, nil
	}
	delete(m.m, state)
	return m.now().Before(st.ExpiresAt), nil
}

// CleanupExpired deletes states past their expiry and returns how many went.
// The TTL index does the same, but its monitor only runs once a minute.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CleanupExpired drops states past their expiry.
func (m *Memory) CleanupExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var n int64
	for k, st := range m.m {
		if !now.Before(st.ExpiresAt) {
			delete(m.m, k)
			n++
		}
	}
	return n, nil
}
