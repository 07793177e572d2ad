package services

import (
	"context"
	"errors"
	"time"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrContactNotFound      = errors.New("contact not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSelfDemotion         = errors.New("cannot change own role")
)

type UserService struct {
	db   *gorm.DB
	auth *AuthService
}

func NewUserService(db *gorm.DB, auth *AuthService) *UserService {
	return &UserService{db: db, auth: auth}
}

func (s *UserService) Get(id uuid.UUID) (*dto.UserResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, ErrUserNotFound
	}
	return toUserResponse(&user), nil
}

func (s *UserService) UpdateProfile(id uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if req.Name != nil {
		if err := s.db.Model(&user).Update("name", *req.Name).Error; err != nil {
			return nil, err
		}
	}
	return toUserResponse(&user), nil
}

// --- Contacts ---

// AddContact stores a contact channel. Marking it primary clears the
// previous primary of the same type in the same transaction, keeping at
// most one primary per (user, type).
func (s *UserService) AddContact(userID uuid.UUID, req *dto.ContactRequest) (*dto.ContactResponse, error) {
	contact := models.UserContact{
		UserID:    userID,
		Type:      req.Type,
		Value:     req.Value,
		IsPrimary: req.IsPrimary,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if req.IsPrimary {
			if err := tx.Model(&models.UserContact{}).
				Where("user_id = ? AND type = ? AND is_primary = ?", userID, req.Type, true).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&contact).Error
	})
	if err != nil {
		return nil, err
	}
	return toContactResponse(&contact), nil
}

func (s *UserService) ListContacts(userID uuid.UUID) ([]dto.ContactResponse, error) {
	var contacts []models.UserContact
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&contacts).Error; err != nil {
		return nil, err
	}
	out := make([]dto.ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, *toContactResponse(&contacts[i]))
	}
	return out, nil
}

func (s *UserService) SetPrimaryContact(userID, contactID uuid.UUID) error {
	var contact models.UserContact
	if err := s.db.Where("id = ? AND user_id = ?", contactID, userID).First(&contact).Error; err != nil {
		return ErrContactNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.UserContact{}).
			Where("user_id = ? AND type = ? AND is_primary = ?", userID, contact.Type, true).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&contact).Update("is_primary", true).Error
	})
}

func (s *UserService) DeleteContact(userID, contactID uuid.UUID) error {
	res := s.db.Where("id = ? AND user_id = ?", contactID, userID).Delete(&models.UserContact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}

// --- Subscriptions ---

func (s *UserService) Subscribe(userID, templateID uuid.UUID) error {
	var tmpl models.Template
	if err := s.db.First(&tmpl, "id = ?", templateID).Error; err != nil {
		return ErrTemplateNotFound
	}

	var count int64
	s.db.Model(&models.Subscription{}).
		Where("template_id = ? AND user_id = ?", templateID, userID).
		Count(&count)
	if count > 0 {
		return nil
	}

	sub := models.Subscription{TemplateID: templateID, UserID: userID}
	return s.db.Create(&sub).Error
}

func (s *UserService) Unsubscribe(userID, templateID uuid.UUID) error {
	res := s.db.Where("template_id = ? AND user_id = ?", templateID, userID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *UserService) ListSubscriptions(userID uuid.UUID) ([]dto.SubscriptionResponse, error) {
	var subs []models.Subscription
	if err := s.db.Preload("Template").Where("user_id = ?", userID).
		Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, err
	}
	out := make([]dto.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, dto.SubscriptionResponse{
			TemplateID: sub.TemplateID,
			Title:      sub.Template.Title,
			CreatedAt:  sub.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// --- Admin operations ---

func (s *UserService) List(page, pageSize int, query string) (*dto.UserListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)

	q := s.db.Model(&models.User{})
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("email LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	if err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&users).Error; err != nil {
		return nil, err
	}

	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, *toUserResponse(&users[i]))
	}
	return &dto.UserListResponse{
		Users: out,
		Page:  dto.Page{Page: page, PageSize: pageSize, Total: total},
	}, nil
}

// SetBlocked blocks or unblocks a user. Blocking revokes every token so
// cached claims die immediately.
func (s *UserService) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return ErrUserNotFound
	}
	if err := s.db.Model(&user).Update("is_blocked", blocked).Error; err != nil {
		return err
	}
	if blocked {
		return s.auth.RevokeUserTokens(ctx, id)
	}
	return nil
}

// SetRole changes the user's role and forces full token revocation so any
// access token carrying the old role claim stops working.
func (s *UserService) SetRole(ctx context.Context, actorID, id uuid.UUID, role string) error {
	if actorID == id {
		return ErrSelfDemotion
	}
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return ErrUserNotFound
	}
	if err := s.db.Model(&user).Update("role", role).Error; err != nil {
		return err
	}
	return s.auth.RevokeUserTokens(ctx, id)
}

// HardDelete physically removes the user and their auth records, tokens,
// contacts, subscriptions, likes and comments. Authored templates survive
// soft-deleted.
func (s *UserService) HardDelete(id uuid.UUID) error {
	var user models.User
	if err := s.db.Unscoped().First(&user, "id = ?", id).Error; err != nil {
		return ErrUserNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		tx.Where("user_id = ?", id).Delete(&models.EmailPasswordAuth{})
		tx.Where("user_id = ?", id).Delete(&models.GoogleAuth{})
		tx.Where("user_id = ?", id).Delete(&models.RefreshToken{})
		tx.Where("user_id = ?", id).Delete(&models.ApiToken{})
		tx.Where("user_id = ?", id).Delete(&models.UserContact{})
		tx.Where("user_id = ?", id).Delete(&models.Subscription{})
		tx.Where("user_id = ?", id).Delete(&models.UserSettings{})
		tx.Where("user_id = ?", id).Delete(&models.Like{})
		tx.Unscoped().Where("user_id = ?", id).Delete(&models.Comment{})
		tx.Where("user_id = ?", id).Delete(&models.TemplateAllowedUser{})
		tx.Model(&models.Template{}).Where("author_id = ?", id).Update("is_published", false)
		tx.Where("author_id = ?", id).Delete(&models.Template{})
		return tx.Unscoped().Delete(&user).Error
	})
}

func toUserResponse(user *models.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		IsBlocked: user.IsBlocked,
	}
}

func toContactResponse(contact *models.UserContact) *dto.ContactResponse {
	return &dto.ContactResponse{
		ID:        contact.ID,
		Type:      contact.Type,
		Value:     contact.Value,
		IsPrimary: contact.IsPrimary,
	}
}
