package dto

import "github.com/google/uuid"

type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,max=255"`
}

type ContactRequest struct {
	Type      string `json:"type" validate:"required,oneof=email phone telegram link"`
	Value     string `json:"value" validate:"required,max=500"`
	IsPrimary bool   `json:"is_primary"`
}

type ContactResponse struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	IsPrimary bool      `json:"is_primary"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Page  Page           `json:"page"`
}

type UserSettingsRequest struct {
	ColorThemeID *uuid.UUID `json:"color_theme_id,omitempty"`
	LanguageID   *uuid.UUID `json:"language_id,omitempty"`
}

type ColorThemeRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	CSSClass string `json:"css_class" validate:"max=100"`
}

type LanguageRequest struct {
	Code string `json:"code" validate:"required,max=10"`
	Name string `json:"name" validate:"required,max=100"`
}

type TagResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	UsageCount int       `json:"usage_count"`
}

type TopicRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type SearchResponse struct {
	Hits []SearchHit `json:"hits"`
	Page Page        `json:"page"`
}

type SearchHit struct {
	TemplateID uuid.UUID `json:"template_id"`
	Title      string    `json:"title"`
	Snippet    string    `json:"snippet"`
}
