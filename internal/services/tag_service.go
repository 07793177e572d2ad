package services

import (
	"errors"
	"strings"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrTagNotFound = errors.New("tag not found")

type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// Attach links a tag (created on first use) to a template and bumps the
// denormalized usage count. No-op when the link already exists.
func (s *TagService) Attach(tx *gorm.DB, templateID uuid.UUID, name string) error {
	name = normalizeTagName(name)
	if name == "" {
		return nil
	}

	var tag models.Tag
	if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
		tag = models.Tag{Name: name}
		if err := tx.Create(&tag).Error; err != nil {
			return err
		}
	}

	var count int64
	tx.Model(&models.TemplateTag{}).
		Where("template_id = ? AND tag_id = ?", templateID, tag.ID).
		Count(&count)
	if count > 0 {
		return nil
	}

	join := models.TemplateTag{TemplateID: templateID, TagID: tag.ID}
	if err := tx.Create(&join).Error; err != nil {
		return err
	}
	return tx.Model(&models.Tag{}).Where("id = ?", tag.ID).
		Update("usage_count", gorm.Expr("usage_count + 1")).Error
}

// Detach removes the link and decrements the usage count, clamped at zero.
func (s *TagService) Detach(tx *gorm.DB, templateID, tagID uuid.UUID) error {
	res := tx.Where("template_id = ? AND tag_id = ?", templateID, tagID).
		Delete(&models.TemplateTag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}
	return tx.Model(&models.Tag{}).Where("id = ? AND usage_count > 0", tagID).
		Update("usage_count", gorm.Expr("usage_count - 1")).Error
}

// SyncTemplateTags reconciles a template's tag set against the requested
// names, attaching and detaching as needed.
func (s *TagService) SyncTemplateTags(tx *gorm.DB, templateID uuid.UUID, names []string) error {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		n = normalizeTagName(n)
		if n != "" {
			wanted[n] = true
		}
	}

	var current []models.TemplateTag
	if err := tx.Preload("Tag").Where("template_id = ?", templateID).Find(&current).Error; err != nil {
		return err
	}

	for _, join := range current {
		if wanted[join.Tag.Name] {
			delete(wanted, join.Tag.Name)
			continue
		}
		if err := s.Detach(tx, templateID, join.TagID); err != nil {
			return err
		}
	}
	for name := range wanted {
		if err := s.Attach(tx, templateID, name); err != nil {
			return err
		}
	}
	return nil
}

// RecalculateUsageCount recomputes one tag's count from the join table,
// the escape hatch for drifted incremental maintenance.
func (s *TagService) RecalculateUsageCount(tagID uuid.UUID) (int, error) {
	var tag models.Tag
	if err := s.db.First(&tag, "id = ?", tagID).Error; err != nil {
		return 0, ErrTagNotFound
	}

	var count int64
	if err := s.db.Model(&models.TemplateTag{}).
		Where("tag_id = ?", tagID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	if err := s.db.Model(&tag).Update("usage_count", count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// NamesForTemplate returns the tag names attached to a template.
func (s *TagService) NamesForTemplate(templateID uuid.UUID) ([]string, error) {
	var names []string
	err := s.db.Model(&models.TemplateTag{}).
		Joins("JOIN tags ON tags.id = template_tags.tag_id").
		Where("template_tags.template_id = ?", templateID).
		Order("tags.name ASC").
		Pluck("tags.name", &names).Error
	return names, err
}

// List returns tags ordered by usage for the tag cloud.
func (s *TagService) List(limit int) ([]dto.TagResponse, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var tags []models.Tag
	if err := s.db.Order("usage_count DESC, name ASC").Limit(limit).Find(&tags).Error; err != nil {
		return nil, err
	}
	return toTagResponses(tags), nil
}

// Autocomplete matches tag names by prefix.
func (s *TagService) Autocomplete(prefix string, limit int) ([]dto.TagResponse, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	prefix = normalizeTagName(prefix)
	if prefix == "" {
		return []dto.TagResponse{}, nil
	}
	var tags []models.Tag
	if err := s.db.Where("name LIKE ?", prefix+"%").
		Order("usage_count DESC").Limit(limit).Find(&tags).Error; err != nil {
		return nil, err
	}
	return toTagResponses(tags), nil
}

func toTagResponses(tags []models.Tag) []dto.TagResponse {
	out := make([]dto.TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, dto.TagResponse{ID: t.ID, Name: t.Name, UsageCount: t.UsageCount})
	}
	return out
}

func normalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
