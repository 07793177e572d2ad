package services

import (
	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LikeService struct {
	db        *gorm.DB
	templates *TemplateService
}

func NewLikeService(db *gorm.DB, templates *TemplateService) *LikeService {
	return &LikeService{db: db, templates: templates}
}

// Toggle flips the caller's like on a template and returns the resulting
// state with the fresh count.
func (s *LikeService) Toggle(userID, templateID uuid.UUID) (*dto.LikeStateResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	var tmpl models.Template
	if err := s.db.First(&tmpl, "id = ?", templateID).Error; err != nil {
		return nil, ErrTemplateNotFound
	}
	ok, err := s.templates.HasUserAccess(&tmpl, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}

	liked := false
	var existing models.Like
	err = s.db.Where("template_id = ? AND user_id = ?", templateID, userID).First(&existing).Error
	if err == nil {
		if err := s.db.Delete(&existing).Error; err != nil {
			return nil, err
		}
	} else {
		like := models.Like{TemplateID: templateID, UserID: userID}
		if err := s.db.Create(&like).Error; err != nil {
			return nil, err
		}
		liked = true
	}

	var count int64
	if err := s.db.Model(&models.Like{}).Where("template_id = ?", templateID).Count(&count).Error; err != nil {
		return nil, err
	}

	return &dto.LikeStateResponse{
		TemplateID: templateID,
		UserID:     userID,
		Liked:      liked,
		LikeCount:  count,
	}, nil
}

func (s *LikeService) Count(templateID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Like{}).Where("template_id = ?", templateID).Count(&count).Error
	return count, err
}
