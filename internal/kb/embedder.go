package kb

import (
	"context"
	"fmt"

	"github.com/inboxmem/inboxmem/internal/ai"
	appErr "github.com/inboxmem/inboxmem/internal/pkg/errors"
)

const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Embedder wraps an ai.IEmbedder and enforces the configured dimensionality.
// A vector of any other length never reaches a caller.
type Embedder struct {
	next ai.IEmbedder
	dims int
}

func NewEmbedder(next ai.IEmbedder, dims int) *Embedder {
	return &Embedder{next: next, dims: dims}
}

func (e *Embedder) Dimensions() int {
	return e.dims
}

func (e *Embedder) ModelName() string {
	if e.next == nil {
		return ""
	}
	return e.next.ModelName()
}

func (e *Embedder) EmbedDocument(ctx context.Context, text, title string) ([]float32, error) {
	return e.embed(ctx, &ai.EmbedRequest{Text: text, Title: title, TaskType: TaskRetrievalDocument})
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, &ai.EmbedRequest{Text: text, TaskType: TaskRetrievalQuery})
}

func (e *Embedder) embed(ctx context.Context, req *ai.EmbedRequest) ([]float32, error) {
	if e.next == nil {
		return nil, fmt.Errorf("%w: embedder not configured", appErr.ErrEmbedding)
	}
	vec, err := e.next.Embed(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbedding, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: upstream returned no vector", appErr.ErrEmbedding)
	}
	if len(vec) != e.dims {
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d", appErr.ErrEmbedding, e.dims, len(vec))
	}
	return vec, nil
}
