package dto

import "github.com/google/uuid"

type CommentResponse struct {
	ID         uuid.UUID `json:"id"`
	TemplateID uuid.UUID `json:"template_id"`
	UserID     uuid.UUID `json:"user_id"`
	UserName   string    `json:"user_name"`
	Text       string    `json:"text"`
	CreatedAt  string    `json:"created_at"`
}

type LikeStateResponse struct {
	TemplateID uuid.UUID `json:"template_id"`
	UserID     uuid.UUID `json:"user_id"`
	Liked      bool      `json:"liked"`
	LikeCount  int64     `json:"like_count"`
}

// TemplateActivityResponse is the snapshot returned to hub clients on
// GetTemplateActivity.
type TemplateActivityResponse struct {
	TemplateID uuid.UUID         `json:"template_id"`
	Comments   []CommentResponse `json:"comments"`
	LikeCount  int64             `json:"like_count"`
}

type SubscriptionResponse struct {
	TemplateID uuid.UUID `json:"template_id"`
	Title      string    `json:"title"`
	CreatedAt  string    `json:"created_at"`
}
