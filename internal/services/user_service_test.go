package services

import (
	"context"
	"testing"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactsPrimaryInvariant(t *testing.T) {
	e := setupEnv(t)
	user := createUser(t, e.db, "contacts@example.com")

	first, err := e.users.AddContact(user.ID, &dto.ContactRequest{
		Type: models.ContactTypeEmail, Value: "one@example.com", IsPrimary: true,
	})
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)

	second, err := e.users.AddContact(user.ID, &dto.ContactRequest{
		Type: models.ContactTypeEmail, Value: "two@example.com", IsPrimary: true,
	})
	require.NoError(t, err)
	assert.True(t, second.IsPrimary)

	primariesOfType := func(contactType string) int64 {
		var n int64
		e.db.Model(&models.UserContact{}).
			Where("user_id = ? AND type = ? AND is_primary = ?", user.ID, contactType, true).
			Count(&n)
		return n
	}

	t.Run("NewPrimaryClearsOld", func(t *testing.T) {
		assert.EqualValues(t, 1, primariesOfType(models.ContactTypeEmail))
	})

	t.Run("OtherTypesIndependent", func(t *testing.T) {
		_, err := e.users.AddContact(user.ID, &dto.ContactRequest{
			Type: models.ContactTypePhone, Value: "+1555", IsPrimary: true,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, primariesOfType(models.ContactTypeEmail))
		assert.EqualValues(t, 1, primariesOfType(models.ContactTypePhone))
	})

	t.Run("SetPrimaryMovesFlag", func(t *testing.T) {
		require.NoError(t, e.users.SetPrimaryContact(user.ID, first.ID))
		assert.EqualValues(t, 1, primariesOfType(models.ContactTypeEmail))

		var contact models.UserContact
		require.NoError(t, e.db.First(&contact, "id = ?", first.ID).Error)
		assert.True(t, contact.IsPrimary)
	})

	t.Run("DeleteForeignContactFails", func(t *testing.T) {
		other := createUser(t, e.db, "other@example.com")
		assert.ErrorIs(t, e.users.DeleteContact(other.ID, first.ID), ErrContactNotFound)
	})
}

func TestSubscriptions(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")
	watcher := createUser(t, e.db, "watcher@example.com")
	tmpl := createTemplate(t, e, author.ID, "Watched")

	require.NoError(t, e.users.Subscribe(watcher.ID, tmpl.ID))

	t.Run("SubscribeIdempotent", func(t *testing.T) {
		require.NoError(t, e.users.Subscribe(watcher.ID, tmpl.ID))
		var n int64
		e.db.Model(&models.Subscription{}).Where("user_id = ?", watcher.ID).Count(&n)
		assert.EqualValues(t, 1, n)
	})

	t.Run("ListShowsTitle", func(t *testing.T) {
		subs, err := e.users.ListSubscriptions(watcher.ID)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, "Watched", subs[0].Title)
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		require.NoError(t, e.users.Unsubscribe(watcher.ID, tmpl.ID))
		assert.ErrorIs(t, e.users.Unsubscribe(watcher.ID, tmpl.ID), ErrSubscriptionNotFound)
	})
}

func TestAdminUserManagement(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	admin := createAdmin(t, e.db, "admin@example.com")

	resp, err := e.auth.Register(&dto.RegisterRequest{
		Email:    "victim@example.com",
		Password: "longenoughpass",
	})
	require.NoError(t, err)
	victimID := resp.User.ID

	t.Run("BlockRevokesTokens", func(t *testing.T) {
		require.NoError(t, e.users.SetBlocked(ctx, victimID, true))

		var user models.User
		require.NoError(t, e.db.First(&user, "id = ?", victimID).Error)
		assert.True(t, user.IsBlocked)

		_, err := e.auth.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
		assert.ErrorIs(t, err, ErrInvalidToken)

		cutoff, err := e.revocations.UserCutoff(ctx, victimID.String())
		require.NoError(t, err)
		assert.False(t, cutoff.IsZero())
	})

	t.Run("UnblockKeepsTokensRevoked", func(t *testing.T) {
		require.NoError(t, e.users.SetBlocked(ctx, victimID, false))
		_, err := e.auth.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("SetRolePromotes", func(t *testing.T) {
		require.NoError(t, e.users.SetRole(ctx, admin.ID, victimID, models.RoleAdmin))
		var user models.User
		require.NoError(t, e.db.First(&user, "id = ?", victimID).Error)
		assert.True(t, user.IsAdmin())
	})

	t.Run("SelfRoleChangeRejected", func(t *testing.T) {
		assert.ErrorIs(t, e.users.SetRole(ctx, admin.ID, admin.ID, models.RoleUser), ErrSelfDemotion)
	})

	t.Run("ListFiltersByQuery", func(t *testing.T) {
		list, err := e.users.List(1, 20, "victim")
		require.NoError(t, err)
		require.Len(t, list.Users, 1)
		assert.Equal(t, "victim@example.com", list.Users[0].Email)
	})

	t.Run("HardDeleteKeepsTemplatesSoftDeleted", func(t *testing.T) {
		tmpl := createTemplate(t, e, victimID, "Orphaned")
		require.NoError(t, e.users.HardDelete(victimID))

		var users int64
		e.db.Unscoped().Model(&models.User{}).Where("id = ?", victimID).Count(&users)
		assert.Zero(t, users)

		var live int64
		e.db.Model(&models.Template{}).Where("id = ?", tmpl.ID).Count(&live)
		assert.Zero(t, live)

		var all int64
		e.db.Unscoped().Model(&models.Template{}).Where("id = ?", tmpl.ID).Count(&all)
		assert.EqualValues(t, 1, all)
	})
}
