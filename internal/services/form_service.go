package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/Ivgeniay/formflow/internal/notify"
	"github.com/Ivgeniay/formflow/internal/question"
	"github.com/Ivgeniay/formflow/internal/tasks"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrFormNotFound        = errors.New("form not found")
	ErrAlreadySubmitted    = errors.New("form already submitted for this template")
	ErrTemplateUnavailable = errors.New("template is not accepting submissions")
)

type FormService struct {
	db        *gorm.DB
	templates *TemplateService
	mailer    notify.Mailer
	queue     *tasks.Queue
}

func NewFormService(db *gorm.DB, templates *TemplateService, mailer notify.Mailer, queue *tasks.Queue) *FormService {
	return &FormService{db: db, templates: templates, mailer: mailer, queue: queue}
}

// Submit runs the guard chain — blocked user, unavailable template, access,
// duplicate submission — then stores the form with the template version
// snapshotted. Subscriber notification is queued best-effort after the
// write commits.
func (s *FormService) Submit(userID uuid.UUID, req *dto.SubmitFormRequest) (*dto.FormResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if user.IsBlocked {
		return nil, ErrUserBlocked
	}

	var tmpl models.Template
	if err := s.db.Preload("Questions").First(&tmpl, "id = ?", req.TemplateID).Error; err != nil {
		return nil, ErrTemplateNotFound
	}
	if !tmpl.IsPublished || tmpl.IsArchived {
		return nil, ErrTemplateUnavailable
	}

	ok, err := s.templates.HasUserAccess(&tmpl, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}

	if err := validateAnswers(tmpl.Questions, req.Answers); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	form := models.Form{
		TemplateID:      tmpl.ID,
		UserID:          userID,
		TemplateVersion: tmpl.Version,
		Answers:         datatypes.JSON(raw),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Form{}).
			Where("template_id = ? AND user_id = ?", tmpl.ID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadySubmitted
		}
		return tx.Create(&form).Error
	})
	if err != nil {
		return nil, err
	}

	s.enqueueSubscriberNotice(&tmpl, &user)
	return toFormResponse(&form), nil
}

// Get returns a form to its owner, the template author, or an admin.
func (s *FormService) Get(id, callerID uuid.UUID, callerIsAdmin bool) (*dto.FormResponse, error) {
	var form models.Form
	if err := s.db.First(&form, "id = ?", id).Error; err != nil {
		return nil, ErrFormNotFound
	}
	if !callerIsAdmin && form.UserID != callerID {
		var tmpl models.Template
		if err := s.db.First(&tmpl, "id = ?", form.TemplateID).Error; err != nil {
			return nil, ErrFormNotFound
		}
		if tmpl.AuthorID != callerID {
			return nil, ErrAccessDenied
		}
	}
	return toFormResponse(&form), nil
}

func (s *FormService) ListMine(userID uuid.UUID, page, pageSize int) (*dto.FormListResponse, error) {
	return s.list(s.db.Where("user_id = ?", userID), page, pageSize)
}

// ListByTemplate returns all submissions on a template to its author or an
// admin.
func (s *FormService) ListByTemplate(templateID, callerID uuid.UUID, callerIsAdmin bool, page, pageSize int) (*dto.FormListResponse, error) {
	var tmpl models.Template
	if err := s.db.First(&tmpl, "id = ?", templateID).Error; err != nil {
		return nil, ErrTemplateNotFound
	}
	if !s.templates.CanUserEdit(&tmpl, callerID, callerIsAdmin) {
		return nil, ErrAccessDenied
	}
	return s.list(s.db.Where("template_id = ?", templateID), page, pageSize)
}

func (s *FormService) list(q *gorm.DB, page, pageSize int) (*dto.FormListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)

	query := q.Model(&models.Form{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.Form
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]dto.FormResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *toFormResponse(&rows[i]))
	}
	return &dto.FormListResponse{
		Forms: out,
		Page:  dto.Page{Page: page, PageSize: pageSize, Total: total},
	}, nil
}

// Update replaces the owner's answers, revalidated against the template
// version the form was submitted for when those questions still exist.
func (s *FormService) Update(id, callerID uuid.UUID, req *dto.UpdateFormRequest) (*dto.FormResponse, error) {
	var form models.Form
	if err := s.db.First(&form, "id = ?", id).Error; err != nil {
		return nil, ErrFormNotFound
	}
	if form.UserID != callerID {
		return nil, ErrAccessDenied
	}

	var tmpl models.Template
	if err := s.db.Preload("Questions").First(&tmpl, "id = ?", form.TemplateID).Error; err == nil {
		if err := validateAnswers(tmpl.Questions, req.Answers); err != nil {
			return nil, err
		}
	}

	raw, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	if err := s.db.Model(&form).Update("answers", datatypes.JSON(raw)).Error; err != nil {
		return nil, err
	}
	form.Answers = datatypes.JSON(raw)
	return toFormResponse(&form), nil
}

func (s *FormService) Delete(id, callerID uuid.UUID, callerIsAdmin bool) error {
	var form models.Form
	if err := s.db.First(&form, "id = ?", id).Error; err != nil {
		return ErrFormNotFound
	}
	if !callerIsAdmin && form.UserID != callerID {
		return ErrAccessDenied
	}
	return s.db.Delete(&form).Error
}

func validateAnswers(questions []models.Question, answers map[string]json.RawMessage) error {
	byID := make(map[string]*question.Payload, len(questions))
	for _, q := range questions {
		p, err := question.Parse(q.Data)
		if err != nil {
			continue
		}
		byID[q.ID.String()] = p
	}

	for qid, value := range answers {
		p, ok := byID[qid]
		if !ok {
			return fmt.Errorf("%w: unknown question %s", question.ErrInvalidAnswer, qid)
		}
		if err := p.CheckAnswer(value); err != nil {
			return err
		}
	}

	for _, q := range questions {
		p, ok := byID[q.ID.String()]
		if !ok || !p.Required {
			continue
		}
		if _, answered := answers[q.ID.String()]; !answered {
			return fmt.Errorf("%w: question %q requires an answer", question.ErrInvalidAnswer, p.Title)
		}
	}
	return nil
}

func (s *FormService) enqueueSubscriberNotice(tmpl *models.Template, submitter *models.User) {
	if s.queue == nil || s.mailer == nil {
		return
	}
	templateID := tmpl.ID
	title := tmpl.Title
	submitterName := submitter.Name

	s.queue.Enqueue("notify.subscribers", func(ctx context.Context) error {
		var subs []models.Subscription
		if err := s.db.Preload("User").Where("template_id = ?", templateID).Find(&subs).Error; err != nil {
			return err
		}
		subject := fmt.Sprintf("New response on %q", title)
		body := fmt.Sprintf("<p>%s submitted a new form on <b>%s</b>.</p>", submitterName, title)
		for _, sub := range subs {
			if sub.User.Email == "" {
				continue
			}
			if err := s.mailer.Send(ctx, sub.User.Email, subject, body); err != nil {
				return err
			}
		}
		return nil
	})
}

func toFormResponse(form *models.Form) *dto.FormResponse {
	return &dto.FormResponse{
		ID:              form.ID,
		TemplateID:      form.TemplateID,
		UserID:          form.UserID,
		TemplateVersion: form.TemplateVersion,
		Answers:         json.RawMessage(form.Answers),
		CreatedAt:       form.CreatedAt.UTC().Format(time.RFC3339),
	}
}
