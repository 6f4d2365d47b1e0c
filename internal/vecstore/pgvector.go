package vecstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/inboxmem/inboxmem/internal/pkg/errors"
)

// pgvectorStore keeps every tenant in one kb_vectors table; the tenant_id
// column is the logical collection boundary. No DDL is needed per tenant so
// lazy creation is a no-op here.
type pgvectorStore struct {
	db *sql.DB
}

func newPGVectorStore(db *sql.DB) *pgvectorStore {
	return &pgvectorStore{db: db}
}

func (s *pgvectorStore) Collection(tenantID string) Collection {
	return &pgvectorCollection{db: s.db, tenantID: tenantID}
}

func (s *pgvectorStore) Close() error {
	return nil
}

type pgvectorCollection struct {
	db       *sql.DB
	tenantID string
}

func (c *pgvectorCollection) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	const query = `
		INSERT INTO kb_vectors (id, tenant_id, email_ref_id, embedding, chunk_text, chunk_sequence, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			chunk_text = EXCLUDED.chunk_text,
			ctime = EXCLUDED.ctime
	`
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStoreWrite, err)
	}
	for _, record := range records {
		if _, err := tx.ExecContext(ctx, query,
			record.ID,
			c.tenantID,
			record.EmailRefID,
			pgvector.NewVector(record.Embedding),
			record.Text,
			record.Sequence,
			record.Ctime,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: %v", appErr.ErrStoreWrite, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStoreWrite, err)
	}
	return nil
}

func (c *pgvectorCollection) DeleteBySource(ctx context.Context, emailRefID string) bool {
	const query = `DELETE FROM kb_vectors WHERE tenant_id = $1 AND email_ref_id = $2`
	if _, err := c.db.ExecContext(ctx, query, c.tenantID, emailRefID); err != nil {
		logutil.GetLogger(ctx).Error("delete by source failed",
			zap.String("tenant_id", c.tenantID),
			zap.String("email_ref_id", emailRefID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (c *pgvectorCollection) Search(ctx context.Context, vector []float32, limit int) SearchOutcome {
	const query = `
		SELECT id, email_ref_id, chunk_text, chunk_sequence, ctime
		FROM kb_vectors
		WHERE tenant_id = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, query, c.tenantID, pgvector.NewVector(vector), limit)
	if err != nil {
		return SearchOutcome{Degraded: true, Err: err}
	}
	defer func() { _ = rows.Close() }()
	var records []Record
	for rows.Next() {
		var record Record
		if err := rows.Scan(&record.ID, &record.EmailRefID, &record.Text, &record.Sequence, &record.Ctime); err != nil {
			return SearchOutcome{Degraded: true, Err: err}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return SearchOutcome{Degraded: true, Err: err}
	}
	return SearchOutcome{Records: records}
}
