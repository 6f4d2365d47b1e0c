package ai

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	response string
	err      error
	calls    int
}

func (s *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *scriptedGenerator) GenerateStructured(ctx context.Context, req *StructuredRequest) (string, error) {
	s.calls++
	return s.response, s.err
}

type scriptedEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *scriptedEmbedder) Embed(ctx context.Context, req *EmbedRequest) ([]float32, error) {
	s.calls++
	return s.vector, s.err
}

func (s *scriptedEmbedder) ModelName() string { return "scripted" }

func TestGroupGeneratorFallsBack(t *testing.T) {
	broken := &scriptedGenerator{err: fmt.Errorf("primary down")}
	working := &scriptedGenerator{response: "ok"}
	group := NewGroupGenerator([]GeneratorEntry{
		{Name: "primary", Generator: broken},
		{Name: "backup", Generator: working},
	})

	res, err := group.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "ok", res)
	require.Equal(t, 1, broken.calls)
	require.Equal(t, 1, working.calls)
}

func TestGroupGeneratorAllFail(t *testing.T) {
	group := NewGroupGenerator([]GeneratorEntry{
		{Name: "a", Generator: &scriptedGenerator{err: fmt.Errorf("a down")}},
		{Name: "b", Generator: &scriptedGenerator{err: fmt.Errorf("b down")}},
	})
	_, err := group.GenerateStructured(context.Background(), &StructuredRequest{Prompt: "p"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "b down")
}

func TestGroupGeneratorEmpty(t *testing.T) {
	require.Nil(t, NewGroupGenerator(nil))
}

func TestGroupEmbedderFallsBack(t *testing.T) {
	broken := &scriptedEmbedder{err: fmt.Errorf("primary down")}
	working := &scriptedEmbedder{vector: []float32{1, 2, 3}}
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "primary", Embedder: broken},
		{Name: "backup", Embedder: working},
	})

	vec, err := group.Embed(context.Background(), &EmbedRequest{Text: "x"})
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, vec)
	require.Equal(t, "primary|backup", group.ModelName())
}
