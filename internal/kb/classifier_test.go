package kb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inboxmem/inboxmem/internal/ai"
	appErr "github.com/inboxmem/inboxmem/internal/pkg/errors"
)

type fakeGenerator struct {
	response string
	err      error
	lastReq  *ai.StructuredRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return f.response, f.err
}

func (f *fakeGenerator) GenerateStructured(ctx context.Context, req *ai.StructuredRequest) (string, error) {
	f.lastReq = req
	return f.response, f.err
}

func TestClassifySave(t *testing.T) {
	gen := &fakeGenerator{response: `{"action":"SAVE"}`}
	classifier := NewClassifier(gen, 500)
	action, err := classifier.Classify(context.Background(), "Fwd: travel itinerary\nFlight AB123 departs at 9am")
	require.NoError(t, err)
	require.Equal(t, ActionSave, action)
}

func TestClassifyAsk(t *testing.T) {
	gen := &fakeGenerator{response: `{"action":"ASK"}`}
	classifier := NewClassifier(gen, 500)
	action, err := classifier.Classify(context.Background(), "when does my flight leave?")
	require.NoError(t, err)
	require.Equal(t, ActionAsk, action)
}

func TestClassifyStripsCodeFences(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n{\"action\":\"ASK\"}\n```"}
	classifier := NewClassifier(gen, 500)
	action, err := classifier.Classify(context.Background(), "question?")
	require.NoError(t, err)
	require.Equal(t, ActionAsk, action)
}

func TestClassifyUnexpectedLabel(t *testing.T) {
	gen := &fakeGenerator{response: `{"action":"MAYBE"}`}
	classifier := NewClassifier(gen, 500)
	_, err := classifier.Classify(context.Background(), "hello")
	require.Error(t, err)
	require.True(t, errors.Is(err, appErr.ErrClassification))
}

func TestClassifyUnparseableResponse(t *testing.T) {
	gen := &fakeGenerator{response: "I think you should save this"}
	classifier := NewClassifier(gen, 500)
	_, err := classifier.Classify(context.Background(), "hello")
	require.Error(t, err)
	require.True(t, errors.Is(err, appErr.ErrClassification))
}

func TestClassifyProviderError(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("upstream boom")}
	classifier := NewClassifier(gen, 500)
	_, err := classifier.Classify(context.Background(), "hello")
	require.Error(t, err)
	require.True(t, errors.Is(err, appErr.ErrClassification))
}

func TestClassifyTruncatesPrompt(t *testing.T) {
	gen := &fakeGenerator{response: `{"action":"SAVE"}`}
	classifier := NewClassifier(gen, 10)
	_, err := classifier.Classify(context.Background(), "0123456789ABCDEF")
	require.NoError(t, err)
	require.Equal(t, "0123456789", gen.lastReq.Prompt)
}
