package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Form is one user's submitted answers against a template. Answers are
// keyed by question id; TemplateVersion snapshots Template.Version at
// submission time. A user has at most one non-deleted form per template.
type Form struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"template_id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	TemplateVersion int            `gorm:"not null" json:"template_version"`
	Answers         datatypes.JSON `json:"answers"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
	Template        Template       `gorm:"foreignKey:TemplateID" json:"-"`
	User            User           `gorm:"foreignKey:UserID" json:"-"`
}

func (f *Form) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
