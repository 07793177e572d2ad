package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Ivgeniay/formflow/internal/config"
	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/models"
	"github.com/Ivgeniay/formflow/internal/revocation"
	"github.com/Ivgeniay/formflow/internal/search"
	"github.com/Ivgeniay/formflow/internal/tasks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// In-memory sqlite gives each pooled connection its own database;
	// pin the pool to one connection so every query sees the same DB.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.EmailPasswordAuth{},
		&models.GoogleAuth{},
		&models.UserContact{},
		&models.RefreshToken{},
		&models.ApiToken{},
		&models.Topic{},
		&models.Template{},
		&models.Question{},
		&models.TemplateAllowedUser{},
		&models.TemplateTag{},
		&models.Form{},
		&models.Tag{},
		&models.Comment{},
		&models.Like{},
		&models.Subscription{},
		&models.ColorTheme{},
		&models.Language{},
		&models.UserSettings{},
		&search.IndexedDocument{},
	)
	require.NoError(t, err)
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
	}
}

type env struct {
	db          *gorm.DB
	queue       *tasks.Queue
	revocations *revocation.MemoryStore
	auth        *AuthService
	tags        *TagService
	templates   *TemplateService
	forms       *FormService
	comments    *CommentService
	likes       *LikeService
	users       *UserService
	mailer      *recordingMailer
}

func setupEnv(t *testing.T) *env {
	t.Helper()

	db := setupDB(t)
	queue := tasks.NewQueue(32)
	t.Cleanup(queue.Close)
	store := revocation.NewMemoryStore()
	t.Cleanup(store.Stop)

	auth := NewAuthService(db, testConfig(), store)
	tags := NewTagService(db)
	templates := NewTemplateService(db, tags, search.NewSQLIndex(db), queue)
	mailer := &recordingMailer{}
	forms := NewFormService(db, templates, mailer, queue)

	return &env{
		db:          db,
		queue:       queue,
		revocations: store,
		auth:        auth,
		tags:        tags,
		templates:   templates,
		forms:       forms,
		comments:    NewCommentService(db, templates),
		likes:       NewLikeService(db, templates),
		users:       NewUserService(db, auth),
		mailer:      mailer,
	}
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{Email: email, Name: email, Role: models.RoleUser}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createAdmin(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{Email: email, Name: email, Role: models.RoleAdmin}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func shortTextQuestion(title string, required bool) dto.QuestionInput {
	raw, _ := json.Marshal(map[string]interface{}{
		"type":     "short_text",
		"title":    title,
		"required": required,
	})
	return dto.QuestionInput{Order: 0, Data: raw}
}

func createTemplate(t *testing.T, e *env, authorID uuid.UUID, title string) *dto.TemplateResponse {
	t.Helper()
	resp, err := e.templates.Create(authorID, &dto.CreateTemplateRequest{
		Title:     title,
		Questions: []dto.QuestionInput{shortTextQuestion("How was it?", true)},
	})
	require.NoError(t, err)
	return resp
}

// recordingMailer captures recipients; the queue worker calls Send from
// its own goroutine.
type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}
