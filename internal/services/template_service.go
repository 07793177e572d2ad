package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/Ivgeniay/formflow/internal/question"
	"github.com/Ivgeniay/formflow/internal/search"
	"github.com/Ivgeniay/formflow/internal/tasks"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrTopicNotFound    = errors.New("topic not found")
)

type TemplateService struct {
	db    *gorm.DB
	tags  *TagService
	index search.Index
	queue *tasks.Queue
}

func NewTemplateService(db *gorm.DB, tags *TagService, index search.Index, queue *tasks.Queue) *TemplateService {
	return &TemplateService{db: db, tags: tags, index: index, queue: queue}
}

func (s *TemplateService) Create(authorID uuid.UUID, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	if req.TopicID != nil {
		var topic models.Topic
		if err := s.db.First(&topic, "id = ?", *req.TopicID).Error; err != nil {
			return nil, ErrTopicNotFound
		}
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	accessType := req.AccessType
	if accessType == "" {
		accessType = models.AccessPublic
	}

	tmpl := models.Template{
		AuthorID:    authorID,
		TopicID:     req.TopicID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		AccessType:  accessType,
		Version:     1,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tmpl).Error; err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}
		for i := range questions {
			questions[i].TemplateID = tmpl.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return fmt.Errorf("failed to create questions: %w", err)
			}
		}
		if err := s.tags.SyncTemplateTags(tx, tmpl.ID, req.Tags); err != nil {
			return err
		}
		if accessType == models.AccessRestricted {
			for _, userID := range req.AllowedUsers {
				entry := models.TemplateAllowedUser{TemplateID: tmpl.ID, UserID: userID}
				if err := tx.Create(&entry).Error; err != nil {
					return fmt.Errorf("failed to add allowed user: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueReindex(tmpl.ID)
	return s.Get(tmpl.ID, authorID, true)
}

// Get returns a template when the caller may see it: author, admin, public
// access type, or allow-listed.
func (s *TemplateService) Get(id, callerID uuid.UUID, callerIsAdmin bool) (*dto.TemplateResponse, error) {
	var tmpl models.Template
	if err := s.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("\"order\" ASC")
	}).First(&tmpl, "id = ?", id).Error; err != nil {
		return nil, ErrTemplateNotFound
	}

	if !callerIsAdmin && tmpl.AuthorID != callerID {
		ok, err := s.HasUserAccess(&tmpl, callerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAccessDenied
		}
	}

	return s.toResponse(&tmpl)
}

// ListPublished returns published, non-archived templates visible to
// anyone, newest first.
func (s *TemplateService) ListPublished(page, pageSize int) (*dto.TemplateListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)

	q := s.db.Model(&models.Template{}).
		Where("is_published = ? AND is_archived = ? AND access_type = ?", true, false, models.AccessPublic)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.Template
	if err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return s.toListResponse(rows, page, pageSize, total)
}

// ListByAuthor returns every non-deleted version the author owns.
func (s *TemplateService) ListByAuthor(authorID uuid.UUID, page, pageSize int) (*dto.TemplateListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)

	q := s.db.Model(&models.Template{}).Where("author_id = ?", authorID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.Template
	if err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return s.toListResponse(rows, page, pageSize, total)
}

func (s *TemplateService) Update(id, callerID uuid.UUID, callerIsAdmin bool, req *dto.UpdateTemplateRequest) (*dto.TemplateResponse, error) {
	var tmpl models.Template
	if err := s.db.First(&tmpl, "id = ?", id).Error; err != nil {
		return nil, ErrTemplateNotFound
	}
	if !s.CanUserEdit(&tmpl, callerID, callerIsAdmin) {
		return nil, ErrAccessDenied
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.AccessType != nil {
		updates["access_type"] = *req.AccessType
	}
	if req.TopicID != nil {
		var topic models.Topic
		if err := s.db.First(&topic, "id = ?", *req.TopicID).Error; err != nil {
			return nil, ErrTopicNotFound
		}
		updates["topic_id"] = *req.TopicID
	}

	var questions []models.Question
	if req.Questions != nil {
		var err error
		questions, err = buildQuestions(req.Questions)
		if err != nil {
			return nil, err
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&tmpl).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Questions != nil {
			if err := tx.Where("template_id = ?", tmpl.ID).Delete(&models.Question{}).Error; err != nil {
				return err
			}
			for i := range questions {
				questions[i].TemplateID = tmpl.ID
			}
			if len(questions) > 0 {
				if err := tx.Create(&questions).Error; err != nil {
					return err
				}
			}
		}
		if req.Tags != nil {
			if err := s.tags.SyncTemplateTags(tx, tmpl.ID, req.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueReindex(tmpl.ID)
	return s.Get(tmpl.ID, callerID, callerIsAdmin)
}

// CreateNewVersion copies the base version into a new template row with
// Version = max(chain)+1, BaseTemplateID anchored to the chain head and
// PreviousVersionID pointing at the base. Only the chain author may do
// this.
func (s *TemplateService) CreateNewVersion(baseID, callerID uuid.UUID, req *dto.NewVersionRequest) (*dto.TemplateResponse, error) {
	var base models.Template
	if err := s.db.Preload("Questions").First(&base, "id = ?", baseID).Error; err != nil {
		return nil, ErrTemplateNotFound
	}
	if base.AuthorID != callerID {
		return nil, ErrAccessDenied
	}

	chainID := base.ChainID()

	var maxVersion int
	if err := s.db.Model(&models.Template{}).
		Where("base_template_id = ? OR id = ?", chainID, chainID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error; err != nil {
		return nil, err
	}

	next := models.Template{
		AuthorID:          base.AuthorID,
		TopicID:           base.TopicID,
		Title:             base.Title,
		Description:       base.Description,
		ImageURL:          base.ImageURL,
		AccessType:        base.AccessType,
		Version:           maxVersion + 1,
		BaseTemplateID:    &chainID,
		PreviousVersionID: &base.ID,
	}
	if req.Title != nil {
		next.Title = *req.Title
	}
	if req.Description != nil {
		next.Description = *req.Description
	}

	var questions []models.Question
	if req.Questions != nil {
		var err error
		questions, err = buildQuestions(req.Questions)
		if err != nil {
			return nil, err
		}
	} else {
		for _, q := range base.Questions {
			questions = append(questions, models.Question{Order: q.Order, Data: q.Data})
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&next).Error; err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}
		for i := range questions {
			questions[i].ID = uuid.Nil
			questions[i].TemplateID = next.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return fmt.Errorf("failed to copy questions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueReindex(next.ID)
	return s.Get(next.ID, callerID, false)
}

// Publish makes the target the single published version of its chain:
// every sibling is unpublished and the target published in one
// transaction, so the one-published-version invariant holds even under
// concurrent publish calls.
func (s *TemplateService) Publish(id, callerID uuid.UUID, callerIsAdmin bool) error {
	var tmpl models.Template
	if err := s.db.First(&tmpl, "id = ?", id).Error; err != nil {
		return ErrTemplateNotFound
	}
	if !s.CanUserEdit(&tmpl, callerID, callerIsAdmin) {
		return ErrAccessDenied
	}

	chainID := tmpl.ChainID()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Template{}).
			Where("(base_template_id = ? OR id = ?) AND id <> ?", chainID, chainID, tmpl.ID).
			Where("is_published = ?", true).
			Update("is_published", false).Error; err != nil {
			return err
		}
		return tx.Model(&tmpl).Updates(map[string]interface{}{
			"is_published": true,
			"is_archived":  false,
		}).Error
	})
}

func (s *TemplateService) Unpublish(id, callerID uuid.UUID, callerIsAdmin bool) error {
	return s.setFlag(id, callerID, callerIsAdmin, map[string]interface{}{"is_published": false})
}

func (s *TemplateService) Archive(id, callerID uuid.UUID, callerIsAdmin bool) error {
	return s.setFlag(id, callerID, callerIsAdmin, map[string]interface{}{"is_archived": true, "is_published": false})
}

func (s *TemplateService) Unarchive(id, callerID uuid.UUID, callerIsAdmin bool) error {
	return s.setFlag(id, callerID, callerIsAdmin, map[string]interface{}{"is_archived": false})
}

func (s *TemplateService) setFlag(id, callerID uuid.UUID, callerIsAdmin bool, updates map[string]interface{}) error {
	var tmpl models.Template
	if err := s.db.First(&tmpl, "id = ?", id).Error; err != nil {
		return ErrTemplateNotFound
	}
	if !s.CanUserEdit(&tmpl, callerID, callerIsAdmin) {
		return ErrAccessDenied
	}
	return s.db.Model(&tmpl).Updates(updates).Error
}

// Delete soft-deletes one template version.
func (s *TemplateService) Delete(id, callerID uuid.UUID, callerIsAdmin bool) error {
	var tmpl models.Template
	if err := s.db.First(&tmpl, "id = ?", id).Error; err != nil {
		return ErrTemplateNotFound
	}
	if !s.CanUserEdit(&tmpl, callerID, callerIsAdmin) {
		return ErrAccessDenied
	}
	if err := s.db.Delete(&tmpl).Error; err != nil {
		return err
	}
	s.enqueueRemoveFromIndex(tmpl.ID)
	return nil
}

// Bulk operations are all-or-nothing: authorization is pre-checked for
// every target id and the whole batch rejected on the first failure.
func (s *TemplateService) BulkArchive(ids []uuid.UUID, callerID uuid.UUID, callerIsAdmin bool) error {
	return s.bulkUpdate(ids, callerID, callerIsAdmin, map[string]interface{}{"is_archived": true, "is_published": false})
}

func (s *TemplateService) BulkUnarchive(ids []uuid.UUID, callerID uuid.UUID, callerIsAdmin bool) error {
	return s.bulkUpdate(ids, callerID, callerIsAdmin, map[string]interface{}{"is_archived": false})
}

func (s *TemplateService) BulkDelete(ids []uuid.UUID, callerID uuid.UUID, callerIsAdmin bool) error {
	if err := s.authorizeAll(ids, callerID, callerIsAdmin); err != nil {
		return err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Where("id IN ?", ids).Delete(&models.Template{}).Error
	})
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.enqueueRemoveFromIndex(id)
	}
	return nil
}

func (s *TemplateService) bulkUpdate(ids []uuid.UUID, callerID uuid.UUID, callerIsAdmin bool, updates map[string]interface{}) error {
	if err := s.authorizeAll(ids, callerID, callerIsAdmin); err != nil {
		return err
	}
	return s.db.Model(&models.Template{}).Where("id IN ?", ids).Updates(updates).Error
}

func (s *TemplateService) authorizeAll(ids []uuid.UUID, callerID uuid.UUID, callerIsAdmin bool) error {
	var rows []models.Template
	if err := s.db.Select("id", "author_id").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) != len(ids) {
		return ErrTemplateNotFound
	}
	if callerIsAdmin {
		return nil
	}
	for _, t := range rows {
		if t.AuthorID != callerID {
			return ErrAccessDenied
		}
	}
	return nil
}

// HardDelete physically removes the template and its dependents.
// Admin-only; the handler gates on role.
func (s *TemplateService) HardDelete(ids []uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			tx.Unscoped().Where("template_id = ?", id).Delete(&models.Question{})
			tx.Unscoped().Where("template_id = ?", id).Delete(&models.Form{})
			tx.Unscoped().Where("template_id = ?", id).Delete(&models.Comment{})
			tx.Where("template_id = ?", id).Delete(&models.Like{})
			tx.Where("template_id = ?", id).Delete(&models.Subscription{})
			tx.Where("template_id = ?", id).Delete(&models.TemplateAllowedUser{})

			var joins []models.TemplateTag
			tx.Where("template_id = ?", id).Find(&joins)
			tx.Where("template_id = ?", id).Delete(&models.TemplateTag{})
			for _, j := range joins {
				tx.Model(&models.Tag{}).Where("id = ? AND usage_count > 0", j.TagID).
					Update("usage_count", gorm.Expr("usage_count - 1"))
			}

			if err := tx.Unscoped().Where("id = ?", id).Delete(&models.Template{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// HasUserAccess: author, public access type, or present in the allow-list.
func (s *TemplateService) HasUserAccess(tmpl *models.Template, userID uuid.UUID) (bool, error) {
	if tmpl.AuthorID == userID {
		return true, nil
	}
	if tmpl.AccessType == models.AccessPublic {
		return true, nil
	}
	var count int64
	err := s.db.Model(&models.TemplateAllowedUser{}).
		Where("template_id = ? AND user_id = ?", tmpl.ID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CanUserEdit: admin or author.
func (s *TemplateService) CanUserEdit(tmpl *models.Template, userID uuid.UUID, isAdmin bool) bool {
	return isAdmin || tmpl.AuthorID == userID
}

func (s *TemplateService) AddAllowedUser(templateID, callerID, userID uuid.UUID, callerIsAdmin bool) error {
	var tmpl models.Template
	if err := s.db.First(&tmpl, "id = ?", templateID).Error; err != nil {
		return ErrTemplateNotFound
	}
	if !s.CanUserEdit(&tmpl, callerID, callerIsAdmin) {
		return ErrAccessDenied
	}

	var count int64
	s.db.Model(&models.TemplateAllowedUser{}).
		Where("template_id = ? AND user_id = ?", templateID, userID).
		Count(&count)
	if count > 0 {
		return nil
	}
	entry := models.TemplateAllowedUser{TemplateID: templateID, UserID: userID}
	return s.db.Create(&entry).Error
}

func (s *TemplateService) RemoveAllowedUser(templateID, callerID, userID uuid.UUID, callerIsAdmin bool) error {
	var tmpl models.Template
	if err := s.db.First(&tmpl, "id = ?", templateID).Error; err != nil {
		return ErrTemplateNotFound
	}
	if !s.CanUserEdit(&tmpl, callerID, callerIsAdmin) {
		return ErrAccessDenied
	}
	return s.db.Where("template_id = ? AND user_id = ?", templateID, userID).
		Delete(&models.TemplateAllowedUser{}).Error
}

// Reindex rebuilds the search document for one template synchronously.
// Used by the task queue and the admin reindex-all operation.
func (s *TemplateService) Reindex(ctx context.Context, templateID uuid.UUID) error {
	var tmpl models.Template
	if err := s.db.Preload("Questions").First(&tmpl, "id = ?", templateID).Error; err != nil {
		return s.index.Delete(ctx, templateID)
	}

	doc := search.Document{
		TemplateID:  tmpl.ID,
		Title:       tmpl.Title,
		Description: tmpl.Description,
	}
	for _, q := range tmpl.Questions {
		if p, err := question.Parse(q.Data); err == nil {
			doc.Questions = append(doc.Questions, p.Title)
		}
	}
	tagNames, err := s.tags.NamesForTemplate(tmpl.ID)
	if err == nil {
		doc.Tags = tagNames
	}
	return s.index.Upsert(ctx, doc)
}

// ReindexAll walks every live template. Admin escape hatch.
func (s *TemplateService) ReindexAll(ctx context.Context) (int, error) {
	var ids []uuid.UUID
	if err := s.db.Model(&models.Template{}).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	count := 0
	for _, id := range ids {
		if err := s.Reindex(ctx, id); err == nil {
			count++
		}
	}
	return count, nil
}

func (s *TemplateService) enqueueReindex(id uuid.UUID) {
	if s.queue == nil {
		return
	}
	s.queue.Enqueue("search.reindex", func(ctx context.Context) error {
		return s.Reindex(ctx, id)
	})
}

func (s *TemplateService) enqueueRemoveFromIndex(id uuid.UUID) {
	if s.queue == nil {
		return
	}
	s.queue.Enqueue("search.delete", func(ctx context.Context) error {
		return s.index.Delete(ctx, id)
	})
}

func (s *TemplateService) toResponse(tmpl *models.Template) (*dto.TemplateResponse, error) {
	questions := make([]dto.QuestionResponse, 0, len(tmpl.Questions))
	for _, q := range tmpl.Questions {
		questions = append(questions, dto.QuestionResponse{
			ID:    q.ID,
			Order: q.Order,
			Data:  json.RawMessage(q.Data),
		})
	}

	tagNames, err := s.tags.NamesForTemplate(tmpl.ID)
	if err != nil {
		return nil, err
	}

	var likeCount int64
	s.db.Model(&models.Like{}).Where("template_id = ?", tmpl.ID).Count(&likeCount)

	return &dto.TemplateResponse{
		ID:                tmpl.ID,
		AuthorID:          tmpl.AuthorID,
		TopicID:           tmpl.TopicID,
		Title:             tmpl.Title,
		Description:       tmpl.Description,
		ImageURL:          tmpl.ImageURL,
		AccessType:        tmpl.AccessType,
		Version:           tmpl.Version,
		BaseTemplateID:    tmpl.BaseTemplateID,
		PreviousVersionID: tmpl.PreviousVersionID,
		IsPublished:       tmpl.IsPublished,
		IsArchived:        tmpl.IsArchived,
		Questions:         questions,
		Tags:              tagNames,
		LikeCount:         likeCount,
		CreatedAt:         tmpl.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *TemplateService) toListResponse(rows []models.Template, page, pageSize int, total int64) (*dto.TemplateListResponse, error) {
	out := make([]dto.TemplateResponse, 0, len(rows))
	for i := range rows {
		resp, err := s.toResponse(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return &dto.TemplateListResponse{
		Templates: out,
		Page:      dto.Page{Page: page, PageSize: pageSize, Total: total},
	}, nil
}

func buildQuestions(inputs []dto.QuestionInput) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(inputs))
	for _, in := range inputs {
		if _, err := question.Parse(in.Data); err != nil {
			return nil, err
		}
		questions = append(questions, models.Question{
			Order: in.Order,
			Data:  datatypes.JSON(in.Data),
		})
	}
	return questions, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
