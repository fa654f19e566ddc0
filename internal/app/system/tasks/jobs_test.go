package tasks_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/store/oauthstate"
	"github.com/dalemusser/fieldaudit/internal/app/system/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOAuthStateCleanupJob(t *testing.T) {
	ctx := context.Background()
	states := oauthstate.NewMemory()
	require.NoError(t, states.Save(ctx, "old", time.Now().Add(-time.Minute)))
	require.NoError(t, states.Save(ctx, "new", time.Now().Add(time.Minute)))

	job := tasks.OAuthStateCleanupJob(states, zap.NewNop())
	assert.Equal(t, time.Hour, job.Interval)
	require.NoError(t, job.Run(ctx))

	n, err := states.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "expired state already removed by the job")
	ok, _ := states.Consume(ctx, "new")
	assert.True(t, ok)
}
