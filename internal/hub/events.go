package hub

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Client events.
const (
	EventJoinTemplateGroup   = "JoinTemplateGroup"
	EventLeaveTemplateGroup  = "LeaveTemplateGroup"
	EventAddComment          = "AddComment"
	EventToggleLike          = "ToggleLike"
	EventGetTemplateActivity = "GetTemplateActivity"
)

// Server events.
const (
	EventNewComment       = "NewComment"
	EventLikeToggled      = "LikeToggled"
	EventUserJoined       = "UserJoined"
	EventUserLeft         = "UserLeft"
	EventTemplateActivity = "TemplateActivity"
	EventError            = "Error"
)

type clientMessage struct {
	Event      string    `json:"event"`
	TemplateID uuid.UUID `json:"template_id"`
	Text       string    `json:"text,omitempty"`
}

type serverMessage struct {
	Event      string      `json:"event"`
	TemplateID uuid.UUID   `json:"template_id,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	Message    string      `json:"message,omitempty"`
}

func (m serverMessage) encode() []byte {
	b, _ := json.Marshal(m)
	return b
}
