package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/inboxmem/inboxmem/internal/kb"
	"github.com/inboxmem/inboxmem/internal/model"
	"github.com/inboxmem/inboxmem/internal/vecstore"
)

// EmailStore is the slice of the email repository the pipeline needs.
type EmailStore interface {
	Create(ctx context.Context, email *model.Email) error
	GetForUser(ctx context.Context, userID, emailID string) (*model.Email, error)
	SetIndexState(ctx context.Context, emailID, state string, chunkCount int, mtime int64) error
	Delete(ctx context.Context, userID, emailID string) error
}

// IngestService turns a stored email into vector records in the owner's
// collection. Chunks are embedded and written one by one so a mid-stream
// failure loses only the tail, and record ids are derived from the email id
// and chunk sequence so a retry upserts instead of duplicating.
type IngestService struct {
	emailRepo EmailStore
	chunker   *kb.Chunker
	embedder  *kb.Embedder
	store     vecstore.Store
}

func NewIngestService(emailRepo EmailStore, chunker *kb.Chunker, embedder *kb.Embedder, store vecstore.Store) *IngestService {
	return &IngestService{
		emailRepo: emailRepo,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
	}
}

// Ingest indexes one email into the tenant's collection. On partial failure
// the chunks already stored stay in place and the email is marked failed with
// the count of stored chunks, so the retry job can pick it up later.
func (s *IngestService) Ingest(ctx context.Context, tenantID, emailID string) error {
	logger := logutil.GetLogger(ctx).With(
		zap.String("tenant_id", tenantID),
		zap.String("email_id", emailID),
	)
	email, err := s.emailRepo.GetForUser(ctx, tenantID, emailID)
	if err != nil {
		return fmt.Errorf("load email: %w", err)
	}
	text := kb.Sanitize(email.ContentText)
	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		logger.Info("email has no indexable content, marking indexed")
		return s.emailRepo.SetIndexState(ctx, emailID, model.IndexStateIndexed, 0, time.Now().Unix())
	}
	collection := s.store.Collection(tenantID)
	stored := 0
	var ingestErr error
	for seq, chunk := range chunks {
		vec, err := s.embedder.EmbedDocument(ctx, chunk, email.Subject)
		if err != nil {
			ingestErr = fmt.Errorf("embed chunk %d/%d: %w", seq, len(chunks), err)
			break
		}
		record := vecstore.Record{
			ID:         chunkRecordID(emailID, seq),
			EmailRefID: emailID,
			Embedding:  vec,
			Text:       chunk,
			Sequence:   seq,
			Ctime:      time.Now().Unix(),
		}
		if err := collection.Add(ctx, []vecstore.Record{record}); err != nil {
			ingestErr = fmt.Errorf("store chunk %d/%d: %w", seq, len(chunks), err)
			break
		}
		stored++
	}
	now := time.Now().Unix()
	if ingestErr != nil {
		logger.Error("ingest failed partway",
			zap.Int("stored", stored),
			zap.Int("total", len(chunks)),
			zap.Error(ingestErr),
		)
		if err := s.emailRepo.SetIndexState(ctx, emailID, model.IndexStateFailed, stored, now); err != nil {
			logger.Error("failed to mark email failed", zap.Error(err))
		}
		return ingestErr
	}
	if err := s.emailRepo.SetIndexState(ctx, emailID, model.IndexStateIndexed, stored, now); err != nil {
		return fmt.Errorf("mark email indexed: %w", err)
	}
	logger.Info("email indexed", zap.Int("chunks", stored))
	return nil
}

// Remove deletes an email's vectors from the tenant collection and the email
// row itself. Vector deletion is reported but never blocks the row delete.
func (s *IngestService) Remove(ctx context.Context, tenantID, emailID string) error {
	if !s.store.Collection(tenantID).DeleteBySource(ctx, emailID) {
		logutil.GetLogger(ctx).Warn("vector cleanup incomplete, email row will still be removed",
			zap.String("tenant_id", tenantID),
			zap.String("email_id", emailID),
		)
	}
	return s.emailRepo.Delete(ctx, tenantID, emailID)
}

// chunkRecordID is stable for a given email and sequence, which makes
// re-ingestion an upsert.
func chunkRecordID(emailID string, seq int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("inboxmem:%s:%d", emailID, seq))).String()
}
