package services

import (
	"testing"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagUsageCounting(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")

	first, err := e.templates.Create(author.ID, &dto.CreateTemplateRequest{
		Title:     "First",
		Questions: []dto.QuestionInput{shortTextQuestion("Q", false)},
		Tags:      []string{"survey", "Feedback"},
	})
	require.NoError(t, err)

	_, err = e.templates.Create(author.ID, &dto.CreateTemplateRequest{
		Title:     "Second",
		Questions: []dto.QuestionInput{shortTextQuestion("Q", false)},
		Tags:      []string{"survey"},
	})
	require.NoError(t, err)

	tagByName := func(name string) *models.Tag {
		var tag models.Tag
		require.NoError(t, e.db.First(&tag, "name = ?", name).Error)
		return &tag
	}

	t.Run("NamesNormalized", func(t *testing.T) {
		// "Feedback" lands lowercased.
		assert.NotNil(t, tagByName("feedback"))
	})

	t.Run("AttachIncrements", func(t *testing.T) {
		assert.Equal(t, 2, tagByName("survey").UsageCount)
		assert.Equal(t, 1, tagByName("feedback").UsageCount)
	})

	t.Run("SyncDetachDecrements", func(t *testing.T) {
		_, err := e.templates.Update(first.ID, author.ID, false, &dto.UpdateTemplateRequest{
			Tags: []string{"survey"},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, tagByName("feedback").UsageCount)
		assert.Equal(t, 2, tagByName("survey").UsageCount)
	})

	t.Run("RecalculateMatchesJoinRows", func(t *testing.T) {
		survey := tagByName("survey")

		// Corrupt the denormalized counter, then repair it.
		require.NoError(t, e.db.Model(survey).Update("usage_count", 99).Error)

		count, err := e.tags.RecalculateUsageCount(survey.ID)
		require.NoError(t, err)

		var joinRows int64
		require.NoError(t, e.db.Model(&models.TemplateTag{}).
			Where("tag_id = ?", survey.ID).Count(&joinRows).Error)
		assert.EqualValues(t, joinRows, count)
		assert.EqualValues(t, joinRows, tagByName("survey").UsageCount)
	})
}

func TestTagListAndAutocomplete(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")

	_, err := e.templates.Create(author.ID, &dto.CreateTemplateRequest{
		Title:     "Tagged",
		Questions: []dto.QuestionInput{shortTextQuestion("Q", false)},
		Tags:      []string{"golang", "gophers", "surveys"},
	})
	require.NoError(t, err)

	t.Run("Autocomplete", func(t *testing.T) {
		hits, err := e.tags.Autocomplete("go", 10)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		for _, hit := range hits {
			assert.Contains(t, []string{"golang", "gophers"}, hit.Name)
		}
	})

	t.Run("ListOrderedByUsage", func(t *testing.T) {
		_, err := e.templates.Create(author.ID, &dto.CreateTemplateRequest{
			Title:     "More gophers",
			Questions: []dto.QuestionInput{shortTextQuestion("Q", false)},
			Tags:      []string{"gophers"},
		})
		require.NoError(t, err)

		tags, err := e.tags.List(10)
		require.NoError(t, err)
		require.NotEmpty(t, tags)
		assert.Equal(t, "gophers", tags[0].Name)
	})
}
