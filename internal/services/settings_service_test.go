package services

import (
	"testing"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsSeedDefaults(t *testing.T) {
	db := setupDB(t)
	svc := NewSettingsService(db)

	require.NoError(t, svc.SeedDefaults())

	themes, err := svc.ListThemes()
	require.NoError(t, err)
	assert.Len(t, themes, 2)

	langs, err := svc.ListLanguages()
	require.NoError(t, err)
	require.Len(t, langs, 1)
	assert.True(t, langs[0].IsDefault)

	// Seeding twice does not duplicate.
	require.NoError(t, svc.SeedDefaults())
	themes, _ = svc.ListThemes()
	assert.Len(t, themes, 2)
}

func defaultTheme(t *testing.T, svc *SettingsService) *models.ColorTheme {
	t.Helper()
	themes, err := svc.ListThemes()
	require.NoError(t, err)
	for i := range themes {
		if themes[i].IsDefault {
			return &themes[i]
		}
	}
	t.Fatal("no default theme")
	return nil
}

func TestThemeDefaultInvariant(t *testing.T) {
	db := setupDB(t)
	svc := NewSettingsService(db)
	require.NoError(t, svc.SeedDefaults())

	t.Run("FirstCreatedBecomesDefaultOnEmptyTable", func(t *testing.T) {
		fresh := setupDB(t)
		freshSvc := NewSettingsService(fresh)
		theme, err := freshSvc.CreateTheme(&dto.ColorThemeRequest{Name: "Solo"})
		require.NoError(t, err)
		assert.True(t, theme.IsDefault)
	})

	t.Run("SetDefaultMovesFlag", func(t *testing.T) {
		sepia, err := svc.CreateTheme(&dto.ColorThemeRequest{Name: "Sepia", CSSClass: "theme-sepia"})
		require.NoError(t, err)
		assert.False(t, sepia.IsDefault)

		require.NoError(t, svc.SetDefaultTheme(sepia.ID))

		var defaults int64
		require.NoError(t, db.Model(&models.ColorTheme{}).
			Where("is_default = ?", true).Count(&defaults).Error)
		assert.EqualValues(t, 1, defaults)
		assert.Equal(t, "Sepia", defaultTheme(t, svc).Name)
	})

	t.Run("DuplicateNameRejected", func(t *testing.T) {
		_, err := svc.CreateTheme(&dto.ColorThemeRequest{Name: "Sepia"})
		assert.ErrorIs(t, err, ErrNameTaken)
	})

	t.Run("DeletingDefaultReassigns", func(t *testing.T) {
		require.NoError(t, svc.DeleteTheme(defaultTheme(t, svc).ID))

		var defaults int64
		require.NoError(t, db.Model(&models.ColorTheme{}).
			Where("is_default = ?", true).Count(&defaults).Error)
		assert.EqualValues(t, 1, defaults)
	})

	t.Run("DeletingLastFails", func(t *testing.T) {
		for {
			themes, err := svc.ListThemes()
			require.NoError(t, err)
			if len(themes) == 1 {
				assert.ErrorIs(t, svc.DeleteTheme(themes[0].ID), ErrLastEntry)
				break
			}
			victim := themes[0]
			if victim.IsDefault {
				victim = themes[1]
			}
			require.NoError(t, svc.DeleteTheme(victim.ID))
		}
	})
}

func TestLanguageDefaultInvariant(t *testing.T) {
	db := setupDB(t)
	svc := NewSettingsService(db)
	require.NoError(t, svc.SeedDefaults())

	fr, err := svc.CreateLanguage(&dto.LanguageRequest{Code: "fr", Name: "French"})
	require.NoError(t, err)
	assert.False(t, fr.IsDefault)

	require.NoError(t, svc.SetDefaultLanguage(fr.ID))

	t.Run("SingleDefault", func(t *testing.T) {
		var defaults int64
		require.NoError(t, db.Model(&models.Language{}).
			Where("is_default = ?", true).Count(&defaults).Error)
		assert.EqualValues(t, 1, defaults)
	})

	t.Run("DeleteDefaultPromotesSurvivor", func(t *testing.T) {
		require.NoError(t, svc.DeleteLanguage(fr.ID))

		langs, err := svc.ListLanguages()
		require.NoError(t, err)
		require.Len(t, langs, 1)
		assert.True(t, langs[0].IsDefault)
	})

	t.Run("LastLanguageProtected", func(t *testing.T) {
		langs, err := svc.ListLanguages()
		require.NoError(t, err)
		require.Len(t, langs, 1)
		assert.ErrorIs(t, svc.DeleteLanguage(langs[0].ID), ErrLastEntry)
	})
}

func TestUserSettings(t *testing.T) {
	db := setupDB(t)
	svc := NewSettingsService(db)
	require.NoError(t, svc.SeedDefaults())
	user := createUser(t, db, "settings@example.com")

	themes, err := svc.ListThemes()
	require.NoError(t, err)

	t.Run("UpdateStoresChoices", func(t *testing.T) {
		settings, err := svc.UpdateUserSettings(user.ID, &dto.UserSettingsRequest{
			ColorThemeID: &themes[0].ID,
		})
		require.NoError(t, err)
		require.NotNil(t, settings.ColorThemeID)
		assert.Equal(t, themes[0].ID, *settings.ColorThemeID)
	})

	t.Run("UnknownThemeRejected", func(t *testing.T) {
		bogus := uuid.New()
		_, err := svc.UpdateUserSettings(user.ID, &dto.UserSettingsRequest{ColorThemeID: &bogus})
		assert.ErrorIs(t, err, ErrThemeNotFound)
	})
}
