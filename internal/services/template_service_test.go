package services

import (
	"testing"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateVersioning(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")

	v1 := createTemplate(t, e, author.ID, "Customer survey")
	require.Equal(t, 1, v1.Version)
	require.Nil(t, v1.BaseTemplateID)

	t.Run("NewVersionLinksChain", func(t *testing.T) {
		v2, err := e.templates.CreateNewVersion(v1.ID, author.ID, &dto.NewVersionRequest{})
		require.NoError(t, err)
		assert.Equal(t, 2, v2.Version)
		require.NotNil(t, v2.BaseTemplateID)
		assert.Equal(t, v1.ID, *v2.BaseTemplateID)
		require.NotNil(t, v2.PreviousVersionID)
		assert.Equal(t, v1.ID, *v2.PreviousVersionID)

		// Questions carried over when none supplied.
		assert.Len(t, v2.Questions, len(v1.Questions))
	})

	t.Run("NewVersionAuthorOnly", func(t *testing.T) {
		other := createUser(t, e.db, "other@example.com")
		_, err := e.templates.CreateNewVersion(v1.ID, other.ID, &dto.NewVersionRequest{})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("VersionNumbersNeverReuse", func(t *testing.T) {
		v3, err := e.templates.CreateNewVersion(v1.ID, author.ID, &dto.NewVersionRequest{})
		require.NoError(t, err)
		assert.Equal(t, 3, v3.Version)
	})
}

func TestPublishSingleVersionPerChain(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")

	v1 := createTemplate(t, e, author.ID, "Feedback")
	require.NoError(t, e.templates.Publish(v1.ID, author.ID, false))

	v2, err := e.templates.CreateNewVersion(v1.ID, author.ID, &dto.NewVersionRequest{})
	require.NoError(t, err)
	require.NoError(t, e.templates.Publish(v2.ID, author.ID, false))

	// Publishing v2 flips v1 unpublished.
	var published []models.Template
	require.NoError(t, e.db.Where("(base_template_id = ? OR id = ?) AND is_published = ?", v1.ID, v1.ID, true).
		Find(&published).Error)
	require.Len(t, published, 1)
	assert.Equal(t, v2.ID, published[0].ID)

	t.Run("RepublishOlderVersion", func(t *testing.T) {
		require.NoError(t, e.templates.Publish(v1.ID, author.ID, false))

		var published []models.Template
		require.NoError(t, e.db.Where("(base_template_id = ? OR id = ?) AND is_published = ?", v1.ID, v1.ID, true).
			Find(&published).Error)
		require.Len(t, published, 1)
		assert.Equal(t, v1.ID, published[0].ID)
	})

	t.Run("PublishClearsArchiveFlag", func(t *testing.T) {
		require.NoError(t, e.templates.Archive(v2.ID, author.ID, false))
		require.NoError(t, e.templates.Publish(v2.ID, author.ID, false))

		var tmpl models.Template
		require.NoError(t, e.db.First(&tmpl, "id = ?", v2.ID).Error)
		assert.True(t, tmpl.IsPublished)
		assert.False(t, tmpl.IsArchived)
	})
}

func TestTemplateAccessControl(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")
	stranger := createUser(t, e.db, "stranger@example.com")
	invited := createUser(t, e.db, "invited@example.com")
	admin := createAdmin(t, e.db, "admin@example.com")

	resp, err := e.templates.Create(author.ID, &dto.CreateTemplateRequest{
		Title:        "Restricted poll",
		AccessType:   models.AccessRestricted,
		Questions:    []dto.QuestionInput{shortTextQuestion("Opinion?", false)},
		AllowedUsers: []uuid.UUID{invited.ID},
	})
	require.NoError(t, err)

	t.Run("StrangerDenied", func(t *testing.T) {
		_, err := e.templates.Get(resp.ID, stranger.ID, false)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("InvitedAllowed", func(t *testing.T) {
		_, err := e.templates.Get(resp.ID, invited.ID, false)
		assert.NoError(t, err)
	})

	t.Run("AdminAllowed", func(t *testing.T) {
		_, err := e.templates.Get(resp.ID, admin.ID, true)
		assert.NoError(t, err)
	})

	t.Run("InvitedCannotEdit", func(t *testing.T) {
		var tmpl models.Template
		require.NoError(t, e.db.First(&tmpl, "id = ?", resp.ID).Error)
		assert.False(t, e.templates.CanUserEdit(&tmpl, invited.ID, false))
		assert.True(t, e.templates.CanUserEdit(&tmpl, author.ID, false))
		assert.True(t, e.templates.CanUserEdit(&tmpl, admin.ID, true))
	})

	t.Run("EditGateOnUpdate", func(t *testing.T) {
		title := "Hijacked"
		_, err := e.templates.Update(resp.ID, invited.ID, false, &dto.UpdateTemplateRequest{Title: &title})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("RemoveAllowedUser", func(t *testing.T) {
		require.NoError(t, e.templates.RemoveAllowedUser(resp.ID, author.ID, invited.ID, false))
		_, err := e.templates.Get(resp.ID, invited.ID, false)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestTemplateBulkOperations(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")
	other := createUser(t, e.db, "other@example.com")

	mine := createTemplate(t, e, author.ID, "Mine")
	theirs := createTemplate(t, e, other.ID, "Theirs")

	t.Run("AllOrNothing", func(t *testing.T) {
		err := e.templates.BulkArchive([]uuid.UUID{mine.ID, theirs.ID}, author.ID, false)
		assert.ErrorIs(t, err, ErrAccessDenied)

		// Nothing was archived.
		var tmpl models.Template
		require.NoError(t, e.db.First(&tmpl, "id = ?", mine.ID).Error)
		assert.False(t, tmpl.IsArchived)
	})

	t.Run("OwnedSetSucceeds", func(t *testing.T) {
		require.NoError(t, e.templates.BulkArchive([]uuid.UUID{mine.ID}, author.ID, false))
		var tmpl models.Template
		require.NoError(t, e.db.First(&tmpl, "id = ?", mine.ID).Error)
		assert.True(t, tmpl.IsArchived)

		require.NoError(t, e.templates.BulkUnarchive([]uuid.UUID{mine.ID}, author.ID, false))
	})

	t.Run("BulkDeleteSoft", func(t *testing.T) {
		require.NoError(t, e.templates.BulkDelete([]uuid.UUID{mine.ID}, author.ID, false))
		var count int64
		e.db.Model(&models.Template{}).Where("id = ?", mine.ID).Count(&count)
		assert.Zero(t, count)

		var total int64
		e.db.Unscoped().Model(&models.Template{}).Where("id = ?", mine.ID).Count(&total)
		assert.EqualValues(t, 1, total)
	})
}

func TestTemplateUpdateReplacesQuestions(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")
	resp := createTemplate(t, e, author.ID, "Quiz")

	updated, err := e.templates.Update(resp.ID, author.ID, false, &dto.UpdateTemplateRequest{
		Questions: []dto.QuestionInput{
			shortTextQuestion("First", true),
			{Order: 1, Data: []byte(`{"type":"rating","title":"Stars","max_rating":5}`)},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Questions, 2)
	assert.Equal(t, 0, updated.Questions[0].Order)
	assert.Equal(t, 1, updated.Questions[1].Order)

	t.Run("InvalidPayloadRejected", func(t *testing.T) {
		_, err := e.templates.Update(resp.ID, author.ID, false, &dto.UpdateTemplateRequest{
			Questions: []dto.QuestionInput{{Data: []byte(`{"type":"martian","title":"?"}`)}},
		})
		assert.Error(t, err)
	})
}
