package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ivgeniay/formflow/internal/config"
	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/Ivgeniay/formflow/internal/revocation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserBlocked        = errors.New("user is blocked")
)

type AuthService struct {
	db          *gorm.DB
	cfg         *config.Config
	revocations revocation.Store
	googleJWKS  *GoogleJWKSClient
}

func NewAuthService(db *gorm.DB, cfg *config.Config, revocations revocation.Store) *AuthService {
	return &AuthService{
		db:          db,
		cfg:         cfg,
		revocations: revocations,
		googleJWKS:  NewGoogleJWKSClient(),
	}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	name := req.Name
	if name == "" {
		name = strings.Split(email, "@")[0]
	}

	user := models.User{Email: email, Name: name, Role: models.RoleUser}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		auth := models.EmailPasswordAuth{UserID: user.ID, PasswordHash: string(hash)}
		if err := tx.Create(&auth).Error; err != nil {
			return fmt.Errorf("failed to create auth record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.generateTokenPair(&user, models.AuthMethodEmail)
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	var auth models.EmailPasswordAuth
	if err := s.db.Where("user_id = ?", user.ID).First(&auth).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(auth.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(&user, models.AuthMethodEmail)
}

func (s *AuthService) GoogleSignIn(req *dto.GoogleSignInRequest) (*dto.AuthResponse, error) {
	claims, err := s.googleJWKS.VerifyToken(req.IDToken, s.cfg.GoogleClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify Google identity token: %w", err)
	}

	var gauth models.GoogleAuth
	err = s.db.Where("google_user_id = ?", claims.Sub).First(&gauth).Error
	if err == nil {
		var user models.User
		if err := s.db.First(&user, "id = ?", gauth.UserID).Error; err != nil {
			return nil, ErrUserNotFound
		}
		if user.IsBlocked {
			return nil, ErrUserBlocked
		}
		return s.generateTokenPair(&user, models.AuthMethodGoogle)
	}

	email := strings.ToLower(claims.Email)
	if email == "" {
		return nil, errors.New("google token carries no email")
	}

	// Link to an existing account by email, or create a fresh one.
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		name := claims.Name
		if name == "" {
			name = strings.Split(email, "@")[0]
		}
		user = models.User{Email: email, Name: name, Role: models.RoleUser}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	gauth = models.GoogleAuth{UserID: user.ID, GoogleUserID: claims.Sub}
	if err := s.db.Create(&gauth).Error; err != nil {
		return nil, fmt.Errorf("failed to link google account: %w", err)
	}

	return s.generateTokenPair(&user, models.AuthMethodGoogle)
}

// Refresh rotates the presented refresh token: the stored hash is revoked
// and a new pair issued inside one transaction, so a stale token can never
// be replayed.
func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := HashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	now := time.Now()
	if now.After(stored.ExpiresAt) {
		s.db.Model(&stored).Updates(map[string]interface{}{"revoked": true, "revoked_at": now})
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	var resp *dto.AuthResponse
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", stored.ID, false).
			Updates(map[string]interface{}{"revoked": true, "revoked_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race against a concurrent refresh with the same token.
			return ErrInvalidToken
		}

		var err error
		resp, err = s.generateTokenPairTx(tx, &user, stored.AuthMethod)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *AuthService) Logout(req *dto.LogoutRequest) error {
	tokenHash := HashToken(req.RefreshToken)
	now := time.Now()
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Updates(map[string]interface{}{"revoked": true, "revoked_at": now}).Error
}

// RevokeUserTokens revokes every refresh token of the user and records an
// access-token cutoff. Called on role change and block so cached
// authorization claims die with the old tokens.
func (s *AuthService) RevokeUserTokens(ctx context.Context, userID uuid.UUID) error {
	now := time.Now()
	if err := s.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]interface{}{"revoked": true, "revoked_at": now}).Error; err != nil {
		return err
	}
	return s.revocations.SetUserCutoff(ctx, userID.String(), s.cfg.JWTAccessExpiry)
}

func (s *AuthService) generateTokenPair(user *models.User, method string) (*dto.AuthResponse, error) {
	return s.generateTokenPairTx(s.db, user, method)
}

func (s *AuthService) generateTokenPairTx(tx *gorm.DB, user *models.User, method string) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(tx, user, method)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(tx *gorm.DB, user *models.User, method string) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		UserID:     user.ID,
		AuthMethod: method,
		TokenHash:  HashToken(rawToken),
		ExpiresAt:  time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := tx.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

// HashToken is the stored form of any opaque token (refresh or API).
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
