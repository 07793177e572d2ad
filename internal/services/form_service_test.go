package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Ivgeniay/formflow/internal/dto"
	"github.com/Ivgeniay/formflow/internal/question"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answersFor(resp *dto.TemplateResponse, value string) map[string]json.RawMessage {
	raw, _ := json.Marshal(value)
	answers := make(map[string]json.RawMessage)
	for _, q := range resp.Questions {
		answers[q.ID.String()] = raw
	}
	return answers
}

func publishedTemplate(t *testing.T, e *env, authorID uuid.UUID, title string) *dto.TemplateResponse {
	t.Helper()
	resp := createTemplate(t, e, authorID, title)
	require.NoError(t, e.templates.Publish(resp.ID, authorID, false))
	return resp
}

func TestFormSubmit(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")
	respondent := createUser(t, e.db, "respondent@example.com")

	tmpl := publishedTemplate(t, e, author.ID, "Lunch survey")

	t.Run("HappyPath", func(t *testing.T) {
		form, err := e.forms.Submit(respondent.ID, &dto.SubmitFormRequest{
			TemplateID: tmpl.ID,
			Answers:    answersFor(tmpl, "Great"),
		})
		require.NoError(t, err)
		assert.Equal(t, tmpl.Version, form.TemplateVersion)
	})

	t.Run("DuplicateConflicts", func(t *testing.T) {
		_, err := e.forms.Submit(respondent.ID, &dto.SubmitFormRequest{
			TemplateID: tmpl.ID,
			Answers:    answersFor(tmpl, "Again"),
		})
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
	})

	t.Run("UnpublishedRejected", func(t *testing.T) {
		draft := createTemplate(t, e, author.ID, "Draft")
		_, err := e.forms.Submit(respondent.ID, &dto.SubmitFormRequest{
			TemplateID: draft.ID,
			Answers:    answersFor(draft, "x"),
		})
		assert.ErrorIs(t, err, ErrTemplateUnavailable)
	})

	t.Run("ArchivedRejected", func(t *testing.T) {
		archived := publishedTemplate(t, e, author.ID, "Archived")
		require.NoError(t, e.templates.Archive(archived.ID, author.ID, false))
		_, err := e.forms.Submit(respondent.ID, &dto.SubmitFormRequest{
			TemplateID: archived.ID,
			Answers:    answersFor(archived, "x"),
		})
		assert.ErrorIs(t, err, ErrTemplateUnavailable)
	})

	t.Run("BlockedUserRejected", func(t *testing.T) {
		blocked := createUser(t, e.db, "blocked@example.com")
		require.NoError(t, e.db.Model(blocked).Update("is_blocked", true).Error)
		_, err := e.forms.Submit(blocked.ID, &dto.SubmitFormRequest{
			TemplateID: tmpl.ID,
			Answers:    answersFor(tmpl, "x"),
		})
		assert.ErrorIs(t, err, ErrUserBlocked)
	})
}

func TestFormAnswerValidation(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")
	respondent := createUser(t, e.db, "respondent@example.com")

	resp, err := e.templates.Create(author.ID, &dto.CreateTemplateRequest{
		Title: "Typed quiz",
		Questions: []dto.QuestionInput{
			shortTextQuestion("Name?", true),
			{Order: 1, Data: []byte(`{"type":"rating","title":"Stars","max_rating":5}`)},
		},
	})
	require.NoError(t, err)
	require.NoError(t, e.templates.Publish(resp.ID, author.ID, false))

	textID := resp.Questions[0].ID.String()
	ratingID := resp.Questions[1].ID.String()

	t.Run("UnknownQuestionRejected", func(t *testing.T) {
		_, err := e.forms.Submit(respondent.ID, &dto.SubmitFormRequest{
			TemplateID: resp.ID,
			Answers: map[string]json.RawMessage{
				textID:           json.RawMessage(`"Ann"`),
				uuid.NewString(): json.RawMessage(`"ghost"`),
			},
		})
		assert.ErrorIs(t, err, question.ErrInvalidAnswer)
	})

	t.Run("MissingRequiredRejected", func(t *testing.T) {
		_, err := e.forms.Submit(respondent.ID, &dto.SubmitFormRequest{
			TemplateID: resp.ID,
			Answers: map[string]json.RawMessage{
				ratingID: json.RawMessage(`4`),
			},
		})
		assert.ErrorIs(t, err, question.ErrInvalidAnswer)
	})

	t.Run("WrongTypeRejected", func(t *testing.T) {
		_, err := e.forms.Submit(respondent.ID, &dto.SubmitFormRequest{
			TemplateID: resp.ID,
			Answers: map[string]json.RawMessage{
				textID:   json.RawMessage(`"Ann"`),
				ratingID: json.RawMessage(`"five"`),
			},
		})
		assert.ErrorIs(t, err, question.ErrInvalidAnswer)
	})

	t.Run("ValidAccepted", func(t *testing.T) {
		_, err := e.forms.Submit(respondent.ID, &dto.SubmitFormRequest{
			TemplateID: resp.ID,
			Answers: map[string]json.RawMessage{
				textID:   json.RawMessage(`"Ann"`),
				ratingID: json.RawMessage(`4`),
			},
		})
		assert.NoError(t, err)
	})
}

func TestFormOwnershipAndListing(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")
	respondent := createUser(t, e.db, "respondent@example.com")
	stranger := createUser(t, e.db, "stranger@example.com")

	tmpl := publishedTemplate(t, e, author.ID, "Event feedback")
	form, err := e.forms.Submit(respondent.ID, &dto.SubmitFormRequest{
		TemplateID: tmpl.ID,
		Answers:    answersFor(tmpl, "Nice"),
	})
	require.NoError(t, err)

	t.Run("OwnerReads", func(t *testing.T) {
		_, err := e.forms.Get(form.ID, respondent.ID, false)
		assert.NoError(t, err)
	})

	t.Run("TemplateAuthorReads", func(t *testing.T) {
		_, err := e.forms.Get(form.ID, author.ID, false)
		assert.NoError(t, err)
	})

	t.Run("StrangerDenied", func(t *testing.T) {
		_, err := e.forms.Get(form.ID, stranger.ID, false)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("ListByTemplateAuthorOnly", func(t *testing.T) {
		_, err := e.forms.ListByTemplate(tmpl.ID, stranger.ID, false, 1, 20)
		assert.ErrorIs(t, err, ErrAccessDenied)

		list, err := e.forms.ListByTemplate(tmpl.ID, author.ID, false, 1, 20)
		require.NoError(t, err)
		assert.Len(t, list.Forms, 1)
	})

	t.Run("OwnerUpdatesAnswers", func(t *testing.T) {
		updated, err := e.forms.Update(form.ID, respondent.ID, &dto.UpdateFormRequest{
			Answers: answersFor(tmpl, "Changed my mind"),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, updated.Answers)

		_, err = e.forms.Update(form.ID, stranger.ID, &dto.UpdateFormRequest{
			Answers: answersFor(tmpl, "sneaky"),
		})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestFormSubmitNotifiesSubscribers(t *testing.T) {
	e := setupEnv(t)
	author := createUser(t, e.db, "author@example.com")
	respondent := createUser(t, e.db, "respondent@example.com")
	watcher := createUser(t, e.db, "watcher@example.com")

	tmpl := publishedTemplate(t, e, author.ID, "Watched survey")
	require.NoError(t, e.users.Subscribe(watcher.ID, tmpl.ID))

	_, err := e.forms.Submit(respondent.ID, &dto.SubmitFormRequest{
		TemplateID: tmpl.ID,
		Answers:    answersFor(tmpl, "hello"),
	})
	require.NoError(t, err)

	// The notice runs on the queue worker.
	require.Eventually(t, func() bool {
		for _, to := range e.mailer.recipients() {
			if to == watcher.Email {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}
