package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

type QuestionInput struct {
	Order int             `json:"order"`
	Data  json.RawMessage `json:"data" validate:"required"`
}

type CreateTemplateRequest struct {
	Title        string          `json:"title" validate:"required,max=255"`
	Description  string          `json:"description" validate:"max=10000"`
	TopicID      *uuid.UUID      `json:"topic_id,omitempty"`
	ImageURL     string          `json:"image_url" validate:"omitempty,url,max=500"`
	AccessType   string          `json:"access_type" validate:"omitempty,oneof=public restricted"`
	Questions    []QuestionInput `json:"questions" validate:"dive"`
	Tags         []string        `json:"tags" validate:"max=20,dive,min=1,max=100"`
	AllowedUsers []uuid.UUID     `json:"allowed_users,omitempty"`
}

type UpdateTemplateRequest struct {
	Title       *string         `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=10000"`
	TopicID     *uuid.UUID      `json:"topic_id,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty" validate:"omitempty,url,max=500"`
	AccessType  *string         `json:"access_type,omitempty" validate:"omitempty,oneof=public restricted"`
	Questions   []QuestionInput `json:"questions,omitempty" validate:"dive"`
	Tags        []string        `json:"tags,omitempty" validate:"max=20,dive,min=1,max=100"`
}

// NewVersionRequest carries the fields copied into a new template version.
// Nil fields inherit from the base version.
type NewVersionRequest struct {
	Title       *string         `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=10000"`
	Questions   []QuestionInput `json:"questions,omitempty" validate:"dive"`
}

type BulkTemplateRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=100"`
}

type QuestionResponse struct {
	ID    uuid.UUID       `json:"id"`
	Order int             `json:"order"`
	Data  json.RawMessage `json:"data"`
}

type TemplateResponse struct {
	ID                uuid.UUID          `json:"id"`
	AuthorID          uuid.UUID          `json:"author_id"`
	TopicID           *uuid.UUID         `json:"topic_id,omitempty"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	ImageURL          string             `json:"image_url,omitempty"`
	AccessType        string             `json:"access_type"`
	Version           int                `json:"version"`
	BaseTemplateID    *uuid.UUID         `json:"base_template_id,omitempty"`
	PreviousVersionID *uuid.UUID         `json:"previous_version_id,omitempty"`
	IsPublished       bool               `json:"is_published"`
	IsArchived        bool               `json:"is_archived"`
	Questions         []QuestionResponse `json:"questions,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	LikeCount         int64              `json:"like_count"`
	CreatedAt         string             `json:"created_at"`
}

type TemplateListResponse struct {
	Templates []TemplateResponse `json:"templates"`
	Page      Page               `json:"page"`
}

type AllowedUserRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}
