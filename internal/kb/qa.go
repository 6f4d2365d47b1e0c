package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/inboxmem/inboxmem/internal/ai"
)

const qaSystemInstructionFormat = `You are a helpful assistant.
You will be provided with a knowledge base and a user question.
Your task is to answer the user question from the knowledge base.
If the question cannot be answered from the knowledge base then inform the user that you were not able to answer from the internal knowledge base and answer the question from what you know.
Always prioritize answering from the given knowledge base.
Keep your tone friendly.

The output must be JSON: {"answer": "str"}

KNOWLEDGE BASE STARTS
%s

General Information
Your name: Inbox Memory Bot
Today's date is %s
The time is %s
KNOWLEDGE BASE ENDS`

const qaEmptyKnowledgeBase = `(The internal knowledge base returned no match for this question. Say so, then give your best answer from general knowledge.)`

var answerSchema = &ai.Schema{
	Type: "object",
	Properties: map[string]*ai.Schema{
		"answer": {Type: "string"},
	},
	Required: []string{"answer"},
}

// QAAgent produces a grounded answer from retrieved context. With an empty
// knowledge base it still answers from general knowledge while disclosing the
// miss; it never refuses outright.
type QAAgent struct {
	gen ai.IGenerator
	now func() time.Time
}

func NewQAAgent(gen ai.IGenerator) *QAAgent {
	return &QAAgent{gen: gen, now: time.Now}
}

func (a *QAAgent) Answer(ctx context.Context, question, knowledgeBase string) (string, error) {
	if a.gen == nil {
		return "", fmt.Errorf("qa agent not configured")
	}
	kb := strings.TrimSpace(knowledgeBase)
	if kb == "" {
		kb = qaEmptyKnowledgeBase
	}
	now := a.now()
	system := fmt.Sprintf(qaSystemInstructionFormat, kb, now.Format("2006-01-02"), now.Format("15:04:05"))
	raw, err := a.gen.GenerateStructured(ctx, &ai.StructuredRequest{
		Prompt:            question,
		SystemInstruction: system,
		Schema:            answerSchema,
	})
	if err != nil {
		return "", err
	}
	var parsed struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return "", fmt.Errorf("unparseable qa response: %w", err)
	}
	answer := strings.TrimSpace(parsed.Answer)
	if answer == "" {
		return "", fmt.Errorf("empty qa answer")
	}
	return answer, nil
}
