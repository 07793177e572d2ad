package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AccessPublic     = "public"
	AccessRestricted = "restricted"
)

// Template is a versioned questionnaire definition. Versions of one
// questionnaire form a chain anchored by BaseTemplateID (nil on the first
// version) and linked backwards through PreviousVersionID. At most one
// version per chain is published.
type Template struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	TopicID           *uuid.UUID `gorm:"type:uuid;index" json:"topic_id,omitempty"`
	Title             string     `gorm:"size:255;not null" json:"title"`
	Description       string     `gorm:"type:text" json:"description"`
	ImageURL          string     `gorm:"size:500" json:"image_url,omitempty"`
	AccessType        string     `gorm:"size:20;not null;default:'public'" json:"access_type"`
	Version           int        `gorm:"not null;default:1" json:"version"`
	BaseTemplateID    *uuid.UUID `gorm:"type:uuid;index" json:"base_template_id,omitempty"`
	PreviousVersionID *uuid.UUID `gorm:"type:uuid" json:"previous_version_id,omitempty"`
	IsPublished       bool       `gorm:"default:false;index" json:"is_published"`
	IsArchived        bool       `gorm:"default:false" json:"is_archived"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Author    User       `gorm:"foreignKey:AuthorID" json:"-"`
	Topic     *Topic     `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
	Questions []Question `gorm:"foreignKey:TemplateID" json:"questions,omitempty"`
}

func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ChainID is the id shared by every version of this questionnaire.
func (t *Template) ChainID() uuid.UUID {
	if t.BaseTemplateID != nil {
		return *t.BaseTemplateID
	}
	return t.ID
}

// TemplateAllowedUser is the allow-list entry for restricted templates.
// Irrelevant when the template access type is public.
type TemplateAllowedUser struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_allowed_template_user" json:"template_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_allowed_template_user" json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	Template   Template  `gorm:"foreignKey:TemplateID" json:"-"`
	User       User      `gorm:"foreignKey:UserID" json:"-"`
}

func (a *TemplateAllowedUser) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TemplateTag is the explicit many-to-many join between templates and tags.
// Tag.UsageCount must equal the number of TemplateTag rows referencing it.
type TemplateTag struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_template_tag" json:"template_id"`
	TagID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_template_tag;index" json:"tag_id"`
	CreatedAt  time.Time `json:"created_at"`
	Template   Template  `gorm:"foreignKey:TemplateID" json:"-"`
	Tag        Tag       `gorm:"foreignKey:TagID" json:"-"`
}

func (tt *TemplateTag) BeforeCreate(tx *gorm.DB) error {
	if tt.ID == uuid.Nil {
		tt.ID = uuid.New()
	}
	return nil
}
