package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/inboxmem/inboxmem/internal/ai"
	"github.com/inboxmem/inboxmem/internal/kb"
	"github.com/inboxmem/inboxmem/internal/model"
	appErr "github.com/inboxmem/inboxmem/internal/pkg/errors"
	"github.com/inboxmem/inboxmem/internal/service"
	"github.com/inboxmem/inboxmem/internal/vecstore"
)

type stubGenerator struct {
	response string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.response, nil
}

func (s *stubGenerator) GenerateStructured(ctx context.Context, req *ai.StructuredRequest) (string, error) {
	return s.response, nil
}

type stubEmbedder struct{}

func (s *stubEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) ([]float32, error) {
	vec := make([]float32, 4)
	vec[0] = 1
	return vec, nil
}

func (s *stubEmbedder) ModelName() string { return "stub-embed" }

type stubUserStore struct {
	users map[string]*model.User
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, ok := s.users[email]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return user, nil
}

type stubEmailStore struct {
	created []*model.Email
}

func (s *stubEmailStore) Create(ctx context.Context, email *model.Email) error {
	s.created = append(s.created, email)
	return nil
}

func (s *stubEmailStore) GetForUser(ctx context.Context, userID, emailID string) (*model.Email, error) {
	return nil, appErr.ErrNotFound
}

func (s *stubEmailStore) SetIndexState(ctx context.Context, emailID, state string, chunkCount int, mtime int64) error {
	return nil
}

func (s *stubEmailStore) Delete(ctx context.Context, userID, emailID string) error {
	return nil
}

type stubQueue struct {
	dispatched int
}

func (s *stubQueue) Dispatch(tenantID string, emailRefID string) (string, error) {
	s.dispatched++
	return "task-1", nil
}

type stubSender struct{}

func (s *stubSender) Send(to, subject, textBody, htmlBody string) error { return nil }

func newWebhookRouter(t *testing.T) (*gin.Engine, *stubEmailStore, *stubQueue) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	users := &stubUserStore{users: map[string]*model.User{
		"alice@example.com": {ID: "alice", Email: "alice@example.com"},
	}}
	emails := &stubEmailStore{}
	queue := &stubQueue{}
	gen := &stubGenerator{response: `{"action":"SAVE"}`}
	classifier := kb.NewClassifier(gen, 500)
	embedder := kb.NewEmbedder(&stubEmbedder{}, 4)
	answer := service.NewAnswerService(embedder, vecstore.NewMemoryStore(), kb.NewQAAgent(gen), 6)
	inbound := service.NewInboundService(users, emails, classifier, answer, queue, &stubSender{}, nil)

	engine := gin.New()
	engine.POST("/webhook/inbound", NewWebhookHandler(inbound).Inbound)
	return engine, emails, queue
}

func postInbound(t *testing.T, engine *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/webhook/inbound", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestWebhookInboundSave(t *testing.T) {
	engine, emails, queue := newWebhookRouter(t)
	recorder := postInbound(t, engine, `{
		"From": "alice@example.com",
		"Subject": "Fwd: itinerary",
		"TextBody": "Flight AB123 departs at 9am",
		"HtmlBody": "<p>Flight AB123</p>"
	}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "accepted")
	require.Len(t, emails.created, 1)
	require.Equal(t, 1, queue.dispatched)
}

func TestWebhookInboundUnknownSenderLooksAccepted(t *testing.T) {
	engine, emails, queue := newWebhookRouter(t)
	recorder := postInbound(t, engine, `{
		"From": "stranger@example.com",
		"Subject": "hello",
		"TextBody": "some text"
	}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "accepted")
	require.Empty(t, emails.created)
	require.Zero(t, queue.dispatched)
}

func TestWebhookInboundMissingFieldsIgnored(t *testing.T) {
	engine, emails, _ := newWebhookRouter(t)

	recorder := postInbound(t, engine, `{"Subject": "no sender", "TextBody": "text"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "ignored")

	recorder = postInbound(t, engine, `{"From": "alice@example.com", "Subject": "no body"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "ignored")

	require.Empty(t, emails.created)
}

func TestWebhookInboundMalformedJSONIgnored(t *testing.T) {
	engine, _, _ := newWebhookRouter(t)
	recorder := postInbound(t, engine, `not json`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "ignored")
}
