package services

import (
	"errors"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrThemeNotFound    = errors.New("color theme not found")
	ErrLanguageNotFound = errors.New("language not found")
	ErrLastEntry        = errors.New("cannot delete the last remaining entry")
	ErrNameTaken        = errors.New("name already in use")
)

// SettingsService manages color themes, languages and per-user settings.
// Exactly one theme and one language are the default at any time; every
// multi-step default change runs in a transaction.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// SeedDefaults inserts a baseline theme and language when the tables are
// empty, so the default invariant holds from first boot.
func (s *SettingsService) SeedDefaults() error {
	var themeCount int64
	if err := s.db.Model(&models.ColorTheme{}).Count(&themeCount).Error; err != nil {
		return err
	}
	if themeCount == 0 {
		themes := []models.ColorTheme{
			{Name: "Light", CSSClass: "theme-light", IsDefault: true, IsActive: true},
			{Name: "Dark", CSSClass: "theme-dark", IsActive: true},
		}
		if err := s.db.Create(&themes).Error; err != nil {
			return err
		}
	}

	var langCount int64
	if err := s.db.Model(&models.Language{}).Count(&langCount).Error; err != nil {
		return err
	}
	if langCount == 0 {
		langs := []models.Language{
			{Code: "en", Name: "English", IsDefault: true, IsActive: true},
		}
		if err := s.db.Create(&langs).Error; err != nil {
			return err
		}
	}
	return nil
}

// --- Color themes ---

func (s *SettingsService) CreateTheme(req *dto.ColorThemeRequest) (*models.ColorTheme, error) {
	var existing models.ColorTheme
	if err := s.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return nil, ErrNameTaken
	}

	theme := models.ColorTheme{Name: req.Name, CSSClass: req.CSSClass, IsActive: true}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ColorTheme{}).Count(&count).Error; err != nil {
			return err
		}
		theme.IsDefault = count == 0
		return tx.Create(&theme).Error
	})
	if err != nil {
		return nil, err
	}
	return &theme, nil
}

func (s *SettingsService) ListThemes() ([]models.ColorTheme, error) {
	var themes []models.ColorTheme
	err := s.db.Order("name ASC").Find(&themes).Error
	return themes, err
}

func (s *SettingsService) SetDefaultTheme(id uuid.UUID) error {
	var theme models.ColorTheme
	if err := s.db.First(&theme, "id = ?", id).Error; err != nil {
		return ErrThemeNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ColorTheme{}).
			Where("is_default = ?", true).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&theme).Updates(map[string]interface{}{
			"is_default": true,
			"is_active":  true,
		}).Error
	})
}

// DeleteTheme removes a theme. Deleting the last theme fails; deleting the
// default reassigns default status to another active theme in the same
// transaction.
func (s *SettingsService) DeleteTheme(id uuid.UUID) error {
	var theme models.ColorTheme
	if err := s.db.First(&theme, "id = ?", id).Error; err != nil {
		return ErrThemeNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ColorTheme{}).Count(&count).Error; err != nil {
			return err
		}
		if count <= 1 {
			return ErrLastEntry
		}

		if theme.IsDefault {
			var successor models.ColorTheme
			if err := tx.Where("id <> ? AND is_active = ?", id, true).
				Order("created_at ASC").First(&successor).Error; err != nil {
				// No active alternative; promote any remaining theme.
				if err := tx.Where("id <> ?", id).Order("created_at ASC").
					First(&successor).Error; err != nil {
					return ErrLastEntry
				}
			}
			if err := tx.Model(&successor).Updates(map[string]interface{}{
				"is_default": true,
				"is_active":  true,
			}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&theme).Error
	})
}

// --- Languages ---

func (s *SettingsService) CreateLanguage(req *dto.LanguageRequest) (*models.Language, error) {
	var existing models.Language
	if err := s.db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		return nil, ErrNameTaken
	}

	lang := models.Language{Code: req.Code, Name: req.Name, IsActive: true}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Language{}).Count(&count).Error; err != nil {
			return err
		}
		lang.IsDefault = count == 0
		return tx.Create(&lang).Error
	})
	if err != nil {
		return nil, err
	}
	return &lang, nil
}

func (s *SettingsService) ListLanguages() ([]models.Language, error) {
	var langs []models.Language
	err := s.db.Order("code ASC").Find(&langs).Error
	return langs, err
}

func (s *SettingsService) SetDefaultLanguage(id uuid.UUID) error {
	var lang models.Language
	if err := s.db.First(&lang, "id = ?", id).Error; err != nil {
		return ErrLanguageNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Language{}).
			Where("is_default = ?", true).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&lang).Updates(map[string]interface{}{
			"is_default": true,
			"is_active":  true,
		}).Error
	})
}

func (s *SettingsService) DeleteLanguage(id uuid.UUID) error {
	var lang models.Language
	if err := s.db.First(&lang, "id = ?", id).Error; err != nil {
		return ErrLanguageNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Language{}).Count(&count).Error; err != nil {
			return err
		}
		if count <= 1 {
			return ErrLastEntry
		}

		if lang.IsDefault {
			var successor models.Language
			if err := tx.Where("id <> ? AND is_active = ?", id, true).
				Order("created_at ASC").First(&successor).Error; err != nil {
				if err := tx.Where("id <> ?", id).Order("created_at ASC").
					First(&successor).Error; err != nil {
					return ErrLastEntry
				}
			}
			if err := tx.Model(&successor).Updates(map[string]interface{}{
				"is_default": true,
				"is_active":  true,
			}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&lang).Error
	})
}

// --- User settings ---

func (s *SettingsService) GetUserSettings(userID uuid.UUID) (*models.UserSettings, error) {
	var settings models.UserSettings
	if err := s.db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return &models.UserSettings{UserID: userID}, nil
	}
	return &settings, nil
}

func (s *SettingsService) UpdateUserSettings(userID uuid.UUID, req *dto.UserSettingsRequest) (*models.UserSettings, error) {
	if req.ColorThemeID != nil {
		var theme models.ColorTheme
		if err := s.db.First(&theme, "id = ?", *req.ColorThemeID).Error; err != nil {
			return nil, ErrThemeNotFound
		}
	}
	if req.LanguageID != nil {
		var lang models.Language
		if err := s.db.First(&lang, "id = ?", *req.LanguageID).Error; err != nil {
			return nil, ErrLanguageNotFound
		}
	}

	var settings models.UserSettings
	if err := s.db.Where("user_id = ?", userID).First(&settings).Error; err != nil {
		settings = models.UserSettings{
			UserID:       userID,
			ColorThemeID: req.ColorThemeID,
			LanguageID:   req.LanguageID,
		}
		if err := s.db.Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}

	updates := map[string]interface{}{}
	if req.ColorThemeID != nil {
		updates["color_theme_id"] = *req.ColorThemeID
	}
	if req.LanguageID != nil {
		updates["language_id"] = *req.LanguageID
	}
	if len(updates) > 0 {
		if err := s.db.Model(&settings).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &settings, nil
}
