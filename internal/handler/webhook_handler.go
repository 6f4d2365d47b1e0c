package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/inboxmem/inboxmem/internal/pkg/errors"
	"github.com/inboxmem/inboxmem/internal/pkg/response"
	"github.com/inboxmem/inboxmem/internal/service"
)

// WebhookHandler accepts inbound email callbacks from the mail provider.
// Responses are deliberately uniform: the provider retries on failure and
// must never learn which senders exist.
type WebhookHandler struct {
	inbound *service.InboundService
}

func NewWebhookHandler(inbound *service.InboundService) *WebhookHandler {
	return &WebhookHandler{inbound: inbound}
}

type inboundEmailRequest struct {
	From     string `json:"From"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
	HTMLBody string `json:"HtmlBody"`
}

func (h *WebhookHandler) Inbound(c *gin.Context) {
	var req inboundEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Success(c, gin.H{"status": "ignored"})
		return
	}
	if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.TextBody) == "" {
		response.Success(c, gin.H{"status": "ignored"})
		return
	}
	ctx := c.Request.Context()
	outcome, err := h.inbound.Handle(ctx, &service.InboundEvent{
		Sender:   req.From,
		Subject:  req.Subject,
		TextBody: req.TextBody,
		HTMLBody: req.HTMLBody,
	})
	if err != nil {
		logger := logutil.GetLogger(ctx).With(zap.String("subject", req.Subject))
		if appErr.IsUnknownTenant(err) {
			// Unknown senders get the same answer as known ones.
			logger.Info("inbound email from unknown sender dropped")
			response.Success(c, gin.H{"status": "accepted"})
			return
		}
		logger.Error("inbound email processing failed", zap.Error(err))
		response.Success(c, gin.H{"status": "accepted"})
		return
	}
	response.Success(c, gin.H{"status": "accepted", "action": string(outcome.Action)})
}
