package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCutoff(t *testing.T) {
	s := NewMemoryStore()
	defer s.Stop()
	ctx := context.Background()

	t.Run("UnknownUserHasNoCutoff", func(t *testing.T) {
		cutoff, err := s.UserCutoff(ctx, "nobody")
		require.NoError(t, err)
		assert.True(t, cutoff.IsZero())
	})

	t.Run("SetRecordsNow", func(t *testing.T) {
		require.NoError(t, s.SetUserCutoff(ctx, "alice", time.Hour))
		cutoff, err := s.UserCutoff(ctx, "alice")
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), cutoff, 2*time.Second)
	})

	t.Run("LaterSetMovesCutoffForward", func(t *testing.T) {
		require.NoError(t, s.SetUserCutoff(ctx, "bob", time.Hour))
		first, err := s.UserCutoff(ctx, "bob")
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, s.SetUserCutoff(ctx, "bob", time.Hour))
		second, err := s.UserCutoff(ctx, "bob")
		require.NoError(t, err)
		assert.True(t, second.After(first))
	})

	t.Run("ExpiredEntryReadsAsZero", func(t *testing.T) {
		require.NoError(t, s.SetUserCutoff(ctx, "carol", 10*time.Millisecond))
		time.Sleep(30 * time.Millisecond)
		cutoff, err := s.UserCutoff(ctx, "carol")
		require.NoError(t, err)
		assert.True(t, cutoff.IsZero())
	})

	t.Run("UsersAreIndependent", func(t *testing.T) {
		require.NoError(t, s.SetUserCutoff(ctx, "dave", time.Hour))
		cutoff, err := s.UserCutoff(ctx, "erin")
		require.NoError(t, err)
		assert.True(t, cutoff.IsZero())
	})
}
