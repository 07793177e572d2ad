// Package search indexes templates for full-text lookup behind a narrow
// interface: upsert/delete a document by template id, query by text. The
// shipped implementation queries Postgres directly; swapping in an external
// engine only touches this package.
package search

import (
	"context"

	"github.com/google/uuid"
)

// Document is the indexed shape of one template.
type Document struct {
	TemplateID  uuid.UUID `json:"template_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Questions   []string  `json:"questions"`
	Tags        []string  `json:"tags"`
}

type Hit struct {
	TemplateID uuid.UUID `json:"template_id"`
	Title      string    `json:"title"`
	Snippet    string    `json:"snippet"`
}

type Index interface {
	Upsert(ctx context.Context, doc Document) error
	Delete(ctx context.Context, templateID uuid.UUID) error
	Query(ctx context.Context, text string, page, pageSize int) ([]Hit, int64, error)
}
