package services

import (
	"errors"
	"strings"
	"time"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyComment    = errors.New("comment text is empty")
)

type CommentService struct {
	db        *gorm.DB
	templates *TemplateService
}

func NewCommentService(db *gorm.DB, templates *TemplateService) *CommentService {
	return &CommentService{db: db, templates: templates}
}

// Add persists a comment after checking template access. Broadcasting is
// the hub's job; this only returns the DTO it should fan out.
func (s *CommentService) Add(userID, templateID uuid.UUID, text string) (*dto.CommentResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}

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

	comment := models.Comment{TemplateID: templateID, UserID: userID, Text: text}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	return &dto.CommentResponse{
		ID:         comment.ID,
		TemplateID: comment.TemplateID,
		UserID:     comment.UserID,
		UserName:   user.Name,
		Text:       comment.Text,
		CreatedAt:  comment.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *CommentService) ListByTemplate(templateID uuid.UUID, limit int) ([]dto.CommentResponse, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var comments []models.Comment
	if err := s.db.Preload("User").
		Where("template_id = ?", templateID).
		Order("created_at DESC").Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, err
	}

	out := make([]dto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, dto.CommentResponse{
			ID:         c.ID,
			TemplateID: c.TemplateID,
			UserID:     c.UserID,
			UserName:   c.User.Name,
			Text:       c.Text,
			CreatedAt:  c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// Delete soft-deletes a comment; owner or admin only.
func (s *CommentService) Delete(id, callerID uuid.UUID, callerIsAdmin bool) error {
	var comment models.Comment
	if err := s.db.First(&comment, "id = ?", id).Error; err != nil {
		return ErrCommentNotFound
	}
	if !callerIsAdmin && comment.UserID != callerID {
		return ErrAccessDenied
	}
	return s.db.Delete(&comment).Error
}
