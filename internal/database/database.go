package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Ivgeniay/formflow/internal/config"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/Ivgeniay/formflow/internal/search"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Migrate runs AutoMigrate for all FormFlow models.
func Migrate() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.EmailPasswordAuth{},
		&models.GoogleAuth{},
		&models.UserContact{},
		&models.RefreshToken{},
		&models.ApiToken{},
		&models.Topic{},
		&models.Template{},
		&models.Question{},
		&models.TemplateAllowedUser{},
		&models.TemplateTag{},
		&models.Form{},
		&models.Tag{},
		&models.Comment{},
		&models.Like{},
		&models.Subscription{},
		&models.ColorTheme{},
		&models.Language{},
		&models.UserSettings{},
		&models.SystemLog{},
		&search.IndexedDocument{},
	)
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
