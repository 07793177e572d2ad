package search

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IndexedDocument is the flattened row the SQL index maintains per
// template. Body concatenates title, description, question titles and tags.
type IndexedDocument struct {
	TemplateID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title      string    `gorm:"size:255"`
	Body       string    `gorm:"type:text"`
	UpdatedAt  time.Time
}

func (IndexedDocument) TableName() string {
	return "search_documents"
}

// SQLIndex implements Index over the relational store.
type SQLIndex struct {
	db *gorm.DB
}

func NewSQLIndex(db *gorm.DB) *SQLIndex {
	return &SQLIndex{db: db}
}

func (s *SQLIndex) Upsert(ctx context.Context, doc Document) error {
	parts := []string{doc.Title, doc.Description}
	parts = append(parts, doc.Questions...)
	parts = append(parts, doc.Tags...)

	row := IndexedDocument{
		TemplateID: doc.TemplateID,
		Title:      doc.Title,
		Body:       strings.ToLower(strings.Join(parts, " ")),
		UpdatedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "template_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "body", "updated_at"}),
	}).Create(&row).Error
}

func (s *SQLIndex) Delete(ctx context.Context, templateID uuid.UUID) error {
	return s.db.WithContext(ctx).Where("template_id = ?", templateID).Delete(&IndexedDocument{}).Error
}

func (s *SQLIndex) Query(ctx context.Context, text string, page, pageSize int) ([]Hit, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	q := s.db.WithContext(ctx).Model(&IndexedDocument{})
	for _, term := range strings.Fields(strings.ToLower(text)) {
		q = q.Where("body LIKE ?", "%"+term+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []IndexedDocument
	if err := q.Order("updated_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	hits := make([]Hit, 0, len(rows))
	for _, r := range rows {
		hits = append(hits, Hit{
			TemplateID: r.TemplateID,
			Title:      r.Title,
			Snippet:    snippet(r.Body, 160),
		})
	}
	return hits, total, nil
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so the cut never splits a multi-byte rune.
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "…"
}
