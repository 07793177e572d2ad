package services

import (
	"testing"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentAdd(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")
	visitor := createUser(t, e.db, "visitor@example.com")
	tmpl := publishedTemplate(t, e, author.ID, "Commented")

	t.Run("HappyPath", func(t *testing.T) {
		resp, err := e.comments.Add(visitor.ID, tmpl.ID, "  great form  ")
		require.NoError(t, err)
		assert.Equal(t, "great form", resp.Text)
		assert.Equal(t, visitor.Name, resp.UserName)
		assert.Equal(t, tmpl.ID, resp.TemplateID)
	})

	t.Run("EmptyTextRejected", func(t *testing.T) {
		_, err := e.comments.Add(visitor.ID, tmpl.ID, "   ")
		assert.ErrorIs(t, err, ErrEmptyComment)
	})

	t.Run("RestrictedTemplateDeniesStranger", func(t *testing.T) {
		restricted := createTemplate(t, e, author.ID, "Private")
		access := models.AccessRestricted
		_, err := e.templates.Update(restricted.ID, author.ID, false, &dto.UpdateTemplateRequest{AccessType: &access})
		require.NoError(t, err)

		_, err = e.comments.Add(visitor.ID, restricted.ID, "can I?")
		assert.ErrorIs(t, err, ErrAccessDenied)

		require.NoError(t, e.templates.AddAllowedUser(restricted.ID, author.ID, visitor.ID, false))
		_, err = e.comments.Add(visitor.ID, restricted.ID, "now I can")
		assert.NoError(t, err)
	})

	t.Run("BlockedUserRejected", func(t *testing.T) {
		blocked := createUser(t, e.db, "blocked@example.com")
		require.NoError(t, e.db.Model(blocked).Update("is_blocked", true).Error)
		_, err := e.comments.Add(blocked.ID, tmpl.ID, "hello")
		assert.ErrorIs(t, err, ErrUserBlocked)
	})
}

func TestCommentListAndDelete(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")
	visitor := createUser(t, e.db, "visitor@example.com")
	admin := createAdmin(t, e.db, "admin@example.com")
	tmpl := publishedTemplate(t, e, author.ID, "Discussed")

	first, err := e.comments.Add(visitor.ID, tmpl.ID, "first")
	require.NoError(t, err)
	second, err := e.comments.Add(author.ID, tmpl.ID, "second")
	require.NoError(t, err)

	t.Run("ListNewestFirst", func(t *testing.T) {
		list, err := e.comments.ListByTemplate(tmpl.ID, 50)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
	})

	t.Run("StrangerCannotDelete", func(t *testing.T) {
		stranger := createUser(t, e.db, "stranger@example.com")
		err := e.comments.Delete(first.ID, stranger.ID, false)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("OwnerDeletes", func(t *testing.T) {
		require.NoError(t, e.comments.Delete(first.ID, visitor.ID, false))
		list, err := e.comments.ListByTemplate(tmpl.ID, 50)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("AdminDeletesAnyones", func(t *testing.T) {
		require.NoError(t, e.comments.Delete(second.ID, admin.ID, true))
		list, err := e.comments.ListByTemplate(tmpl.ID, 50)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("MissingCommentNotFound", func(t *testing.T) {
		err := e.comments.Delete(first.ID, visitor.ID, false)
		assert.ErrorIs(t, err, ErrCommentNotFound)
	})
}

func TestLikeToggle(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")
	fanA := createUser(t, e.db, "fana@example.com")
	fanB := createUser(t, e.db, "fanb@example.com")
	tmpl := publishedTemplate(t, e, author.ID, "Likeable")

	t.Run("LikeThenUnlike", func(t *testing.T) {
		state, err := e.likes.Toggle(fanA.ID, tmpl.ID)
		require.NoError(t, err)
		assert.True(t, state.Liked)
		assert.EqualValues(t, 1, state.LikeCount)

		state, err = e.likes.Toggle(fanB.ID, tmpl.ID)
		require.NoError(t, err)
		assert.True(t, state.Liked)
		assert.EqualValues(t, 2, state.LikeCount)

		state, err = e.likes.Toggle(fanA.ID, tmpl.ID)
		require.NoError(t, err)
		assert.False(t, state.Liked)
		assert.EqualValues(t, 1, state.LikeCount)

		count, err := e.likes.Count(tmpl.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("MissingTemplate", func(t *testing.T) {
		_, err := e.likes.Toggle(fanA.ID, author.ID)
		assert.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("BlockedUserRejected", func(t *testing.T) {
		require.NoError(t, e.db.Model(fanB).Update("is_blocked", true).Error)
		_, err := e.likes.Toggle(fanB.ID, tmpl.ID)
		assert.ErrorIs(t, err, ErrUserBlocked)
	})
}
