package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/inboxmem/inboxmem/internal/model"
)

const retryBatchSize = 50

type unindexedLister interface {
	ListUnindexedBefore(ctx context.Context, cutoff int64, limit int) ([]model.Email, error)
}

type taskQueue interface {
	Dispatch(tenantID string, emailRefID string) (string, error)
}

// IngestRetryJob requeues emails that are still pending or failed after the
// configured delay. Deterministic chunk ids make a requeue safe to repeat.
type IngestRetryJob struct {
	emailRepo  unindexedLister
	dispatcher taskQueue
	delay      time.Duration
}

func NewIngestRetryJob(emailRepo unindexedLister, dispatcher taskQueue, delaySeconds int64) *IngestRetryJob {
	if delaySeconds <= 0 {
		delaySeconds = 300
	}
	return &IngestRetryJob{
		emailRepo:  emailRepo,
		dispatcher: dispatcher,
		delay:      time.Duration(delaySeconds) * time.Second,
	}
}

func (j *IngestRetryJob) Name() string {
	return "ingest_retry"
}

func (j *IngestRetryJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.delay).Unix()
	emails, err := j.emailRepo.ListUnindexedBefore(ctx, cutoff, retryBatchSize)
	if err != nil {
		return err
	}
	if len(emails) == 0 {
		return nil
	}
	logger := logutil.GetLogger(ctx)
	requeued := 0
	for _, email := range emails {
		if _, err := j.dispatcher.Dispatch(email.UserID, email.ID); err != nil {
			logger.Error("requeue failed", zap.String("email_id", email.ID), zap.Error(err))
			continue
		}
		requeued++
	}
	logger.Info("requeued unindexed emails", zap.Int("count", requeued), zap.Int("candidates", len(emails)))
	return nil
}
