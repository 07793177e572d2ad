package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrApiTokenNotFound = errors.New("api token not found")
	ErrApiTokenInvalid  = errors.New("invalid api token")
)

type ApiTokenService struct {
	db *gorm.DB
}

func NewApiTokenService(db *gorm.DB) *ApiTokenService {
	return &ApiTokenService{db: db}
}

// Create issues a fresh opaque token and deactivates any prior active one,
// keeping at most one active token per user. The plaintext is returned
// exactly once.
func (s *ApiTokenService) Create(userID uuid.UUID, name string) (*dto.ApiTokenResponse, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	rawToken := "ff_" + base64.URLEncoding.EncodeToString(rawBytes)

	record := models.ApiToken{
		UserID:    userID,
		TokenHash: HashToken(rawToken),
		Name:      name,
		IsActive:  true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ApiToken{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store api token: %w", err)
	}

	return &dto.ApiTokenResponse{
		Token:     rawToken,
		ID:        record.ID,
		Name:      record.Name,
		IsActive:  true,
		CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// Validate resolves a presented plaintext token to its owner.
func (s *ApiTokenService) Validate(rawToken string) (*models.User, error) {
	var record models.ApiToken
	if err := s.db.Where("token_hash = ? AND is_active = ?", HashToken(rawToken), true).
		First(&record).Error; err != nil {
		return nil, ErrApiTokenInvalid
	}
	if record.ExpiresAt != nil && time.Now().After(*record.ExpiresAt) {
		return nil, ErrApiTokenInvalid
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", record.UserID).Error; err != nil {
		return nil, ErrApiTokenInvalid
	}
	if user.IsBlocked {
		return nil, ErrApiTokenInvalid
	}
	return &user, nil
}

func (s *ApiTokenService) Get(userID uuid.UUID) (*dto.ApiTokenResponse, error) {
	var record models.ApiToken
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).First(&record).Error; err != nil {
		return nil, ErrApiTokenNotFound
	}
	return &dto.ApiTokenResponse{
		ID:        record.ID,
		Name:      record.Name,
		IsActive:  record.IsActive,
		CreatedAt: record.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *ApiTokenService) Revoke(userID uuid.UUID) error {
	res := s.db.Model(&models.ApiToken{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrApiTokenNotFound
	}
	return nil
}
