package model

const (
	IndexStatePending = "pending"
	IndexStateIndexed = "indexed"
	IndexStateFailed  = "failed"
)

// Email is a saved source document. Rows are immutable after creation except
// for the indexing state transition pending -> indexed|failed.
type Email struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Subject     string `json:"subject"`
	ContentText string `json:"content_text"`
	ContentHTML string `json:"content_html,omitempty"`
	IsForwarded bool   `json:"is_forwarded"`
	IndexState  string `json:"index_state"`
	ChunkCount  int    `json:"chunk_count"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}
