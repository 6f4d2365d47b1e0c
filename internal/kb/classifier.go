package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inboxmem/inboxmem/internal/ai"
	appErr "github.com/inboxmem/inboxmem/internal/pkg/errors"
)

type Action string

const (
	ActionSave Action = "SAVE"
	ActionAsk  Action = "ASK"
)

const classifierSystemInstruction = `You are a classification model for an email processing application.
You will be provided with the email subject and email text as input.
Your only purpose is to understand the email subject and content and classify the action.
There are two possible actions: "SAVE" and "ASK".
If the email seems like the user is trying to ask a question then classify the action as "ASK".
If the email looks like a forwarded message or just some notes and the user does not seem to be posting a question then classify it as "SAVE".
The output must be JSON: {"action":"SAVE"} or {"action":"ASK"}.`

var classifySchema = &ai.Schema{
	Type: "object",
	Properties: map[string]*ai.Schema{
		"action": {Type: "string", Enum: []string{string(ActionSave), string(ActionAsk)}},
	},
	Required: []string{"action"},
}

// Classifier decides whether an inbound email is material to save or a
// question to answer. There is no third outcome: anything the model returns
// outside the two labels is an error, never a silent default.
type Classifier struct {
	gen      ai.IGenerator
	maxChars int
}

func NewClassifier(gen ai.IGenerator, maxChars int) *Classifier {
	if maxChars <= 0 {
		maxChars = 500
	}
	return &Classifier{gen: gen, maxChars: maxChars}
}

func (c *Classifier) Classify(ctx context.Context, text string) (Action, error) {
	if c.gen == nil {
		return "", fmt.Errorf("%w: classifier not configured", appErr.ErrClassification)
	}
	raw, err := c.gen.GenerateStructured(ctx, &ai.StructuredRequest{
		Prompt:            truncateRunes(text, c.maxChars),
		SystemInstruction: classifierSystemInstruction,
		Schema:            classifySchema,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", appErr.ErrClassification, err)
	}
	var parsed struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return "", fmt.Errorf("%w: unparseable response: %v", appErr.ErrClassification, err)
	}
	switch Action(strings.ToUpper(strings.TrimSpace(parsed.Action))) {
	case ActionSave:
		return ActionSave, nil
	case ActionAsk:
		return ActionAsk, nil
	}
	return "", fmt.Errorf("%w: unexpected label %q", appErr.ErrClassification, parsed.Action)
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

func stripFences(output string) string {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
