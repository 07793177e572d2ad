package dto

import (
	"encoding/json"

	"github.com/google/uuid"
)

type SubmitFormRequest struct {
	TemplateID uuid.UUID                  `json:"template_id" validate:"required"`
	Answers    map[string]json.RawMessage `json:"answers" validate:"required"`
}

type UpdateFormRequest struct {
	Answers map[string]json.RawMessage `json:"answers" validate:"required"`
}

type FormResponse struct {
	ID              uuid.UUID       `json:"id"`
	TemplateID      uuid.UUID       `json:"template_id"`
	UserID          uuid.UUID       `json:"user_id"`
	TemplateVersion int             `json:"template_version"`
	Answers         json.RawMessage `json:"answers"`
	CreatedAt       string          `json:"created_at"`
}

type FormListResponse struct {
	Forms []FormResponse `json:"forms"`
	Page  Page           `json:"page"`
}
