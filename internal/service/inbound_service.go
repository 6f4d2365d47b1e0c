package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/inboxmem/inboxmem/internal/filestore"
	"github.com/inboxmem/inboxmem/internal/kb"
	"github.com/inboxmem/inboxmem/internal/model"
	appErr "github.com/inboxmem/inboxmem/internal/pkg/errors"
)

// UserStore resolves inbound senders to tenants.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// TaskQueue accepts indexing work for background execution.
type TaskQueue interface {
	Dispatch(tenantID string, emailRefID string) (string, error)
}

// InboundEvent is one email delivered by the mail provider webhook.
type InboundEvent struct {
	Sender   string
	Subject  string
	TextBody string
	HTMLBody string
}

// InboundOutcome reports what the pipeline decided to do with an event.
type InboundOutcome struct {
	Action  kb.Action
	EmailID string
	TaskID  string
}

// InboundService is the entry point of the email pipeline: resolve the
// sender to a tenant, classify, then either queue the email for indexing or
// answer it and reply by mail.
type InboundService struct {
	userRepo   UserStore
	emailRepo  EmailStore
	classifier *kb.Classifier
	answer     *AnswerService
	dispatcher TaskQueue
	sender     EmailSender
	archive    filestore.Store
}

func NewInboundService(
	userRepo UserStore,
	emailRepo EmailStore,
	classifier *kb.Classifier,
	answer *AnswerService,
	dispatcher TaskQueue,
	sender EmailSender,
	archive filestore.Store,
) *InboundService {
	return &InboundService{
		userRepo:   userRepo,
		emailRepo:  emailRepo,
		classifier: classifier,
		answer:     answer,
		dispatcher: dispatcher,
		sender:     sender,
		archive:    archive,
	}
}

func (s *InboundService) Handle(ctx context.Context, event *InboundEvent) (*InboundOutcome, error) {
	sender := strings.ToLower(strings.TrimSpace(event.Sender))
	if sender == "" {
		return nil, fmt.Errorf("%w: empty sender", appErr.ErrInvalid)
	}
	user, err := s.userRepo.GetByEmail(ctx, sender)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", appErr.ErrUnknownTenant, sender)
		}
		return nil, fmt.Errorf("resolve sender: %w", err)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("tenant_id", user.ID))
	action, err := s.classifier.Classify(ctx, event.Subject+"\n"+event.TextBody)
	if err != nil {
		return nil, err
	}
	logger.Info("inbound email classified", zap.String("action", string(action)))
	switch action {
	case kb.ActionSave:
		return s.save(ctx, user, event)
	case kb.ActionAsk:
		return s.ask(ctx, user, event)
	}
	return nil, fmt.Errorf("%w: unhandled action %q", appErr.ErrClassification, action)
}

func (s *InboundService) save(ctx context.Context, user *model.User, event *InboundEvent) (*InboundOutcome, error) {
	email := &model.Email{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Subject:     strings.TrimSpace(event.Subject),
		ContentText: event.TextBody,
		ContentHTML: event.HTMLBody,
		IsForwarded: looksForwarded(event.Subject),
		IndexState:  model.IndexStatePending,
		Ctime:       time.Now().Unix(),
		Mtime:       time.Now().Unix(),
	}
	if err := s.emailRepo.Create(ctx, email); err != nil {
		return nil, fmt.Errorf("store email: %w", err)
	}
	s.archiveHTML(ctx, user.ID, email.ID, event.HTMLBody)
	taskID, err := s.dispatcher.Dispatch(user.ID, email.ID)
	if err != nil {
		// The row stays pending; the retry job will requeue it.
		logutil.GetLogger(ctx).Error("failed to queue indexing task",
			zap.String("email_id", email.ID),
			zap.Error(err),
		)
	}
	return &InboundOutcome{Action: kb.ActionSave, EmailID: email.ID, TaskID: taskID}, nil
}

func (s *InboundService) ask(ctx context.Context, user *model.User, event *InboundEvent) (*InboundOutcome, error) {
	question := strings.TrimSpace(event.TextBody)
	if question == "" {
		question = strings.TrimSpace(event.Subject)
	}
	answer, err := s.answer.Answer(ctx, user.ID, question)
	if err != nil {
		return nil, err
	}
	subject, textBody, htmlBody := BuildReply(event.Subject, answer)
	if err := s.sender.Send(user.Email, subject, textBody, htmlBody); err != nil {
		return nil, fmt.Errorf("send reply: %w", err)
	}
	return &InboundOutcome{Action: kb.ActionAsk}, nil
}

// archiveHTML keeps the raw HTML payload for later inspection. Best effort;
// the pipeline never fails because the archive is down.
func (s *InboundService) archiveHTML(ctx context.Context, tenantID, emailID, html string) {
	if s.archive == nil || html == "" {
		return
	}
	key := filestore.EmailHTMLKey(tenantID, emailID)
	reader := newBytesReadSeekCloser([]byte(html))
	if err := s.archive.Save(ctx, key, reader, int64(len(html))); err != nil {
		logutil.GetLogger(ctx).Warn("failed to archive email html",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func looksForwarded(subject string) bool {
	lowered := strings.ToLower(strings.TrimSpace(subject))
	return strings.HasPrefix(lowered, "fwd:") || strings.HasPrefix(lowered, "fw:")
}
