package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inboxmem/inboxmem/internal/filestore"
	"github.com/inboxmem/inboxmem/internal/model"
	"github.com/inboxmem/inboxmem/internal/pkg/errcode"
	"github.com/inboxmem/inboxmem/internal/pkg/response"
	"github.com/inboxmem/inboxmem/internal/service"
)

// EmailDirectory is the read side of the email repo the handler needs.
type EmailDirectory interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Email, error)
	GetForUser(ctx context.Context, userID, emailID string) (*model.Email, error)
}

type KBHandler struct {
	answer  *service.AnswerService
	ingest  *service.IngestService
	emails  EmailDirectory
	archive filestore.Store
}

func NewKBHandler(answer *service.AnswerService, ingest *service.IngestService, emails EmailDirectory, archive filestore.Store) *KBHandler {
	return &KBHandler{answer: answer, ingest: ingest, emails: emails, archive: archive}
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *KBHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		response.Error(c, errcode.ErrInvalid, "question is required")
		return
	}
	answer, err := h.answer.Answer(c.Request.Context(), getUserID(c), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"answer": answer})
}

type emailItem struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	IndexState string `json:"index_state"`
	ChunkCount int    `json:"chunk_count"`
	Ctime      int64  `json:"ctime"`
}

func (h *KBHandler) ListEmails(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	emails, err := h.emails.ListByUser(c.Request.Context(), getUserID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	items := make([]emailItem, 0, len(emails))
	for _, email := range emails {
		items = append(items, toEmailItem(email))
	}
	response.Success(c, gin.H{"emails": items})
}

func (h *KBHandler) DeleteEmail(c *gin.Context) {
	emailID := c.Param("id")
	if emailID == "" {
		response.Error(c, errcode.ErrInvalid, "email id is required")
		return
	}
	if err := h.ingest.Remove(c.Request.Context(), getUserID(c), emailID); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": emailID})
}

// GetRawEmail streams the archived HTML body of a saved email. The archive
// is optional and best effort, so a missing copy is a plain not-found.
func (h *KBHandler) GetRawEmail(c *gin.Context) {
	emailID := c.Param("id")
	if emailID == "" {
		response.Error(c, errcode.ErrInvalid, "email id is required")
		return
	}
	userID := getUserID(c)
	if _, err := h.emails.GetForUser(c.Request.Context(), userID, emailID); err != nil {
		handleError(c, err)
		return
	}
	if h.archive == nil {
		response.Error(c, errcode.ErrNotFound, "archive not configured")
		return
	}
	reader, err := h.archive.Open(c.Request.Context(), filestore.EmailHTMLKey(userID, emailID))
	if err != nil {
		response.Error(c, errcode.ErrNotFound, "no archived copy")
		return
	}
	defer func() { _ = reader.Close() }()
	c.DataFromReader(http.StatusOK, -1, "text/html; charset=utf-8", reader, nil)
}

func toEmailItem(email model.Email) emailItem {
	return emailItem{
		ID:         email.ID,
		Subject:    email.Subject,
		IndexState: email.IndexState,
		ChunkCount: email.ChunkCount,
		Ctime:      email.Ctime,
	}
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return fallback
		}
		value = value*10 + int(r-'0')
		if value > 1000 {
			return fallback
		}
	}
	return value
}
