package kb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQAAnswer(t *testing.T) {
	gen := &fakeGenerator{response: `{"answer":"Your flight leaves at 9am."}`}
	agent := NewQAAgent(gen)
	answer, err := agent.Answer(context.Background(), "when does my flight leave?", "Flight AB123 departs at 9am")
	require.NoError(t, err)
	require.Equal(t, "Your flight leaves at 9am.", answer)
	require.Contains(t, gen.lastReq.SystemInstruction, "Flight AB123 departs at 9am")
	require.Contains(t, gen.lastReq.SystemInstruction, "Inbox Memory Bot")
}

func TestQAAnswerIncludesDate(t *testing.T) {
	gen := &fakeGenerator{response: `{"answer":"ok"}`}
	agent := NewQAAgent(gen)
	agent.now = func() time.Time {
		return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	}
	_, err := agent.Answer(context.Background(), "what day is it?", "nothing")
	require.NoError(t, err)
	require.Contains(t, gen.lastReq.SystemInstruction, "2025-06-15")
	require.Contains(t, gen.lastReq.SystemInstruction, "10:30:00")
}

func TestQAAnswerEmptyKnowledgeBase(t *testing.T) {
	gen := &fakeGenerator{response: `{"answer":"I could not find that in your knowledge base, but generally..."}`}
	agent := NewQAAgent(gen)
	answer, err := agent.Answer(context.Background(), "any question", "")
	require.NoError(t, err)
	require.NotEmpty(t, answer)
	require.Contains(t, gen.lastReq.SystemInstruction, "no match")
}

func TestQAAnswerEmptyResponse(t *testing.T) {
	gen := &fakeGenerator{response: `{"answer":"  "}`}
	agent := NewQAAgent(gen)
	_, err := agent.Answer(context.Background(), "question", "kb")
	require.Error(t, err)
}

func TestQAAnswerStripsFences(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n{\"answer\":\"yes\"}\n```"}
	agent := NewQAAgent(gen)
	answer, err := agent.Answer(context.Background(), "q", "kb")
	require.NoError(t, err)
	require.Equal(t, "yes", answer)
}
