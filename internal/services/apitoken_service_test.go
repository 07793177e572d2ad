package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApiTokenLifecycle(t *testing.T) {
	e := setupEnv(t)
	tokens := NewApiTokenService(e.db)
	user := createUser(t, e.db, "integrator@example.com")

	t.Run("CreateReturnsPlaintextOnce", func(t *testing.T) {
		resp, err := tokens.Create(user.ID, "ci pipeline")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(resp.Token, "ff_"))
		assert.Equal(t, "ci pipeline", resp.Name)

		got, err := tokens.Get(user.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Token)
		assert.Equal(t, resp.ID, got.ID)
	})

	t.Run("NewTokenDeactivatesOld", func(t *testing.T) {
		first, err := tokens.Create(user.ID, "old")
		require.NoError(t, err)
		second, err := tokens.Create(user.ID, "new")
		require.NoError(t, err)

		_, err = tokens.Validate(first.Token)
		assert.ErrorIs(t, err, ErrApiTokenInvalid)

		owner, err := tokens.Validate(second.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, owner.ID)

		got, err := tokens.Get(user.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.ID)
	})

	t.Run("RevokeInvalidates", func(t *testing.T) {
		resp, err := tokens.Create(user.ID, "short lived")
		require.NoError(t, err)
		require.NoError(t, tokens.Revoke(user.ID))

		_, err = tokens.Validate(resp.Token)
		assert.ErrorIs(t, err, ErrApiTokenInvalid)
		_, err = tokens.Get(user.ID)
		assert.ErrorIs(t, err, ErrApiTokenNotFound)
		assert.ErrorIs(t, tokens.Revoke(user.ID), ErrApiTokenNotFound)
	})

	t.Run("GarbageTokenRejected", func(t *testing.T) {
		_, err := tokens.Validate("ff_not-a-real-token")
		assert.ErrorIs(t, err, ErrApiTokenInvalid)
	})

	t.Run("BlockedOwnerRejected", func(t *testing.T) {
		blocked := createUser(t, e.db, "blocked-integrator@example.com")
		resp, err := tokens.Create(blocked.ID, "doomed")
		require.NoError(t, err)
		require.NoError(t, e.db.Model(blocked).Update("is_blocked", true).Error)

		_, err = tokens.Validate(resp.Token)
		assert.ErrorIs(t, err, ErrApiTokenInvalid)
	})
}
