package search

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupIndex(t *testing.T) *SQLIndex {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&IndexedDocument{}))
	return NewSQLIndex(db)
}

func TestSQLIndexUpsertAndQuery(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()

	surveyID := uuid.New()
	require.NoError(t, idx.Upsert(ctx, Document{
		TemplateID:  surveyID,
		Title:       "Customer Survey",
		Description: "quarterly feedback round",
		Questions:   []string{"How satisfied are you?"},
		Tags:        []string{"feedback", "quarterly"},
	}))
	require.NoError(t, idx.Upsert(ctx, Document{
		TemplateID: uuid.New(),
		Title:      "Job Application",
		Questions:  []string{"Years of experience"},
		Tags:       []string{"hiring"},
	}))

	t.Run("MatchesTitle", func(t *testing.T) {
		hits, total, err := idx.Query(ctx, "survey", 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, hits, 1)
		assert.Equal(t, surveyID, hits[0].TemplateID)
		assert.Equal(t, "Customer Survey", hits[0].Title)
	})

	t.Run("MatchesQuestionAndTagText", func(t *testing.T) {
		_, total, err := idx.Query(ctx, "satisfied", 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)

		_, total, err = idx.Query(ctx, "hiring", 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		_, total, err := idx.Query(ctx, "CUSTOMER", 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("AllTermsMustMatch", func(t *testing.T) {
		_, total, err := idx.Query(ctx, "customer feedback", 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)

		_, total, err = idx.Query(ctx, "customer hiring", 1, 20)
		require.NoError(t, err)
		assert.EqualValues(t, 0, total)
	})
}

func TestSQLIndexUpsertReplaces(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, idx.Upsert(ctx, Document{TemplateID: id, Title: "Old Title", Tags: []string{"stale"}}))
	require.NoError(t, idx.Upsert(ctx, Document{TemplateID: id, Title: "New Title", Tags: []string{"fresh"}}))

	hits, total, err := idx.Query(ctx, "fresh", 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "New Title", hits[0].Title)

	_, total, err = idx.Query(ctx, "stale", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestSQLIndexDelete(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, idx.Upsert(ctx, Document{TemplateID: id, Title: "Doomed"}))
	require.NoError(t, idx.Delete(ctx, id))

	_, total, err := idx.Query(ctx, "doomed", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	// Deleting an absent document is not an error.
	require.NoError(t, idx.Delete(ctx, uuid.New()))
}

func TestSQLIndexPagination(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Upsert(ctx, Document{
			TemplateID: uuid.New(),
			Title:      fmt.Sprintf("Poll %d", i),
			Tags:       []string{"poll"},
		}))
	}

	hits, total, err := idx.Query(ctx, "poll", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, hits, 2)

	hits, _, err = idx.Query(ctx, "poll", 3, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, _, err = idx.Query(ctx, "poll", 9, 2)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSnippetTruncation(t *testing.T) {
	short := "fits entirely"
	assert.Equal(t, short, snippet(short, 160))

	long := strings.Repeat("x", 200)
	got := snippet(long, 160)
	assert.True(t, strings.HasPrefix(got, strings.Repeat("x", 160)))
	assert.True(t, strings.HasSuffix(got, "…"))

	// The cut must land on a rune boundary even when the limit falls inside
	// a multi-byte rune.
	multibyte := strings.Repeat("é", 100) // 2 bytes each
	got = snippet(multibyte, 151)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 75)+"…", got)
}
