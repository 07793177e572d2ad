package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID uuid.UUID      `gorm:"type:uuid;not null;index" json:"template_id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Text       string         `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Template   Template       `gorm:"foreignKey:TemplateID" json:"-"`
	User       User           `gorm:"foreignKey:UserID" json:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Like struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_template_user" json:"template_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_like_template_user" json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	Template   Template  `gorm:"foreignKey:TemplateID" json:"-"`
	User       User      `gorm:"foreignKey:UserID" json:"-"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Subscription subscribes a user to new form submissions on a template.
type Subscription struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sub_template_user" json:"template_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sub_template_user" json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	Template   Template  `gorm:"foreignKey:TemplateID" json:"-"`
	User       User      `gorm:"foreignKey:UserID" json:"-"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
