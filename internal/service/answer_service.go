package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/inboxmem/inboxmem/internal/kb"
	"github.com/inboxmem/inboxmem/internal/vecstore"
)

// AnswerService retrieves context for a question from the tenant's collection
// and asks the QA agent to answer from it. A degraded search is not fatal:
// the agent still answers, just without retrieved context.
type AnswerService struct {
	embedder *kb.Embedder
	store    vecstore.Store
	agent    *kb.QAAgent
	topK     int
}

func NewAnswerService(embedder *kb.Embedder, store vecstore.Store, agent *kb.QAAgent, topK int) *AnswerService {
	if topK <= 0 {
		topK = 6
	}
	return &AnswerService{embedder: embedder, store: store, agent: agent, topK: topK}
}

func (s *AnswerService) Answer(ctx context.Context, tenantID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}
	knowledgeBase := s.retrieve(ctx, tenantID, question)
	answer, err := s.agent.Answer(ctx, question, knowledgeBase)
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return answer, nil
}

// retrieve embeds the question and searches the tenant collection. Any
// failure along the way degrades to an empty knowledge base so the answer
// path stays available.
func (s *AnswerService) retrieve(ctx context.Context, tenantID, question string) string {
	logger := logutil.GetLogger(ctx).With(zap.String("tenant_id", tenantID))
	vec, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		logger.Warn("kb query degraded: query embedding failed", zap.Error(err))
		return ""
	}
	outcome := s.store.Collection(tenantID).Search(ctx, vec, s.topK)
	if outcome.Degraded {
		logger.Warn("kb query degraded: search failed", zap.Error(outcome.Err))
		return ""
	}
	if len(outcome.Records) == 0 {
		return ""
	}
	records := make([]vecstore.Record, len(outcome.Records))
	copy(records, outcome.Records)
	// Chunks come back by similarity; re-order by sequence so overlapping
	// chunks of one email read in document order.
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].EmailRefID != records[j].EmailRefID {
			return records[i].EmailRefID < records[j].EmailRefID
		}
		return records[i].Sequence < records[j].Sequence
	})
	parts := make([]string, 0, len(records))
	for _, record := range records {
		parts = append(parts, record.Text)
	}
	return strings.Join(parts, "\n")
}
