package vecstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/inboxmem/inboxmem/internal/config"
)

// Record is the persisted unit of the knowledge base: one embedded chunk of
// one source email. Records are created during ingestion and bulk-deleted by
// source; there is no update operation.
type Record struct {
	ID         string
	EmailRefID string
	Embedding  []float32
	Text       string
	Sequence   int
	Ctime      int64
}

// SearchOutcome distinguishes a true empty result from a degraded one where
// the backend failed and the error was swallowed into "no records". Callers
// must log degraded outcomes; they must not treat them as proof of absence.
type SearchOutcome struct {
	Records  []Record
	Degraded bool
	Err      error
}

// Collection is a tenant-scoped view of the store. Backends create the
// underlying collection lazily on first use.
type Collection interface {
	// Add appends records as one batch; on error nothing should be assumed
	// stored from this call.
	Add(ctx context.Context, records []Record) error
	// DeleteBySource removes every record of the given source email. It
	// reports false on backend failure ("state unknown"), never an error,
	// and deleting an absent source succeeds.
	DeleteBySource(ctx context.Context, emailRefID string) bool
	// Search returns at most limit records ranked nearest first.
	Search(ctx context.Context, vector []float32, limit int) SearchOutcome
}

type Store interface {
	Collection(tenantID string) Collection
	Close() error
}

func New(cfg config.VectorConfig, db *sql.DB) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "pgvector":
		if db == nil {
			return nil, fmt.Errorf("pgvector store requires a database handle")
		}
		return newPGVectorStore(db), nil
	case "qdrant":
		return newQdrantStore(cfg.Qdrant.Addr, cfg.Dimensions)
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unsupported vector store type: %s", cfg.Type)
}
