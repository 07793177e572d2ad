// Package question defines the typed payloads stored in Question.Data and
// Form.Answers. Payloads arrive as JSON tagged with a "type" discriminator
// and are validated here before anything is persisted; unknown kinds are
// rejected at the boundary.
package question

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	KindShortText      = "short_text"
	KindLongText       = "long_text"
	KindSingleChoice   = "single_choice"
	KindMultipleChoice = "multiple_choice"
	KindScale          = "scale"
	KindRating         = "rating"
	KindDate           = "date"
	KindTime           = "time"
)

var (
	ErrUnknownKind    = errors.New("unknown question type")
	ErrInvalidPayload = errors.New("invalid question payload")
	ErrInvalidAnswer  = errors.New("answer does not match question type")
)

var validate = validator.New()

// Payload is the envelope stored in Question.Data.
type Payload struct {
	Type        string          `json:"type" validate:"required"`
	Title       string          `json:"title" validate:"required,max=500"`
	Description string          `json:"description,omitempty" validate:"max=2000"`
	Required    bool            `json:"required,omitempty"`
	Options     []string        `json:"options,omitempty"`
	Scale       *ScaleBounds    `json:"scale,omitempty"`
	MaxRating   int             `json:"max_rating,omitempty"`
	Extra       json.RawMessage `json:"extra,omitempty"`
}

type ScaleBounds struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	MinLabel string `json:"min_label,omitempty"`
	MaxLabel string `json:"max_label,omitempty"`
}

// Parse decodes and validates a question payload.
func Parse(raw []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Payload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch p.Type {
	case KindShortText, KindLongText, KindDate, KindTime:
		return nil
	case KindSingleChoice, KindMultipleChoice:
		if len(p.Options) < 2 {
			return fmt.Errorf("%w: choice questions need at least two options", ErrInvalidPayload)
		}
		seen := make(map[string]bool, len(p.Options))
		for _, opt := range p.Options {
			if opt == "" {
				return fmt.Errorf("%w: empty option", ErrInvalidPayload)
			}
			if seen[opt] {
				return fmt.Errorf("%w: duplicate option %q", ErrInvalidPayload, opt)
			}
			seen[opt] = true
		}
		return nil
	case KindScale:
		if p.Scale == nil {
			return fmt.Errorf("%w: scale bounds required", ErrInvalidPayload)
		}
		if p.Scale.Min >= p.Scale.Max {
			return fmt.Errorf("%w: scale min must be below max", ErrInvalidPayload)
		}
		return nil
	case KindRating:
		if p.MaxRating < 2 || p.MaxRating > 10 {
			return fmt.Errorf("%w: max_rating must be between 2 and 10", ErrInvalidPayload)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, p.Type)
	}
}

// CheckAnswer validates one submitted answer value against the question
// kind. Answers arrive as arbitrary JSON values keyed by question id.
func (p *Payload) CheckAnswer(value json.RawMessage) error {
	switch p.Type {
	case KindShortText, KindLongText, KindDate, KindTime:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return fmt.Errorf("%w: expected string", ErrInvalidAnswer)
		}
		if p.Required && s == "" {
			return fmt.Errorf("%w: required answer is empty", ErrInvalidAnswer)
		}
		return nil
	case KindSingleChoice:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return fmt.Errorf("%w: expected option string", ErrInvalidAnswer)
		}
		if !p.hasOption(s) {
			return fmt.Errorf("%w: %q is not an option", ErrInvalidAnswer, s)
		}
		return nil
	case KindMultipleChoice:
		var ss []string
		if err := json.Unmarshal(value, &ss); err != nil {
			return fmt.Errorf("%w: expected option list", ErrInvalidAnswer)
		}
		if p.Required && len(ss) == 0 {
			return fmt.Errorf("%w: required answer is empty", ErrInvalidAnswer)
		}
		for _, s := range ss {
			if !p.hasOption(s) {
				return fmt.Errorf("%w: %q is not an option", ErrInvalidAnswer, s)
			}
		}
		return nil
	case KindScale:
		var n int
		if err := json.Unmarshal(value, &n); err != nil {
			return fmt.Errorf("%w: expected integer", ErrInvalidAnswer)
		}
		if n < p.Scale.Min || n > p.Scale.Max {
			return fmt.Errorf("%w: %d outside scale bounds", ErrInvalidAnswer, n)
		}
		return nil
	case KindRating:
		var n int
		if err := json.Unmarshal(value, &n); err != nil {
			return fmt.Errorf("%w: expected integer", ErrInvalidAnswer)
		}
		if n < 1 || n > p.MaxRating {
			return fmt.Errorf("%w: %d outside rating bounds", ErrInvalidAnswer, n)
		}
		return nil
	default:
		return ErrUnknownKind
	}
}

func (p *Payload) hasOption(s string) bool {
	for _, opt := range p.Options {
		if opt == s {
			return true
		}
	}
	return false
}
