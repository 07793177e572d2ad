package services

import (
	"errors"
	"strings"

	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTopicExists = errors.New("topic already exists")
	ErrTopicInUse  = errors.New("topic is referenced by templates")
)

type TopicService struct {
	db *gorm.DB
}

func NewTopicService(db *gorm.DB) *TopicService {
	return &TopicService{db: db}
}

func (s *TopicService) Create(name string) (*models.Topic, error) {
	name = strings.TrimSpace(name)

	var existing models.Topic
	if err := s.db.Where("name = ?", name).First(&existing).Error; err == nil {
		return nil, ErrTopicExists
	}

	topic := models.Topic{Name: name}
	if err := s.db.Create(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (s *TopicService) List() ([]models.Topic, error) {
	var topics []models.Topic
	err := s.db.Order("name ASC").Find(&topics).Error
	return topics, err
}

func (s *TopicService) Update(id uuid.UUID, name string) (*models.Topic, error) {
	var topic models.Topic
	if err := s.db.First(&topic, "id = ?", id).Error; err != nil {
		return nil, ErrTopicNotFound
	}
	if err := s.db.Model(&topic).Update("name", strings.TrimSpace(name)).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

// Delete refuses while any template references the topic.
func (s *TopicService) Delete(id uuid.UUID) error {
	var topic models.Topic
	if err := s.db.First(&topic, "id = ?", id).Error; err != nil {
		return ErrTopicNotFound
	}

	var count int64
	if err := s.db.Model(&models.Template{}).Where("topic_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrTopicInUse
	}
	return s.db.Delete(&topic).Error
}
