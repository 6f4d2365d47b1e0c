package ai

import (
	"fmt"
)

// ProviderSpec names one provider instance in a fallback chain together
// with the models it should serve.
type ProviderSpec struct {
	Provider   string
	Model      string
	EmbedModel string
	Args       interface{}
}

// NewGeneratorChain builds one generator per spec and joins them into a
// fallback group tried in order. A single spec yields the bare generator.
func NewGeneratorChain(specs []ProviderSpec) (IGenerator, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one ai provider is required")
	}
	entries := make([]GeneratorEntry, 0, len(specs))
	for _, spec := range specs {
		provider, err := NewProvider(spec.Provider, spec.Args)
		if err != nil {
			return nil, fmt.Errorf("build provider %s: %w", spec.Provider, err)
		}
		entries = append(entries, GeneratorEntry{
			Name:      spec.Provider + ":" + spec.Model,
			Generator: NewGenerator(provider, spec.Model),
		})
	}
	if len(entries) == 1 {
		return entries[0].Generator, nil
	}
	return NewGroupGenerator(entries), nil
}

// NewEmbedderChain is the embedding counterpart of NewGeneratorChain. With
// a single spec the bare embedder is returned so ModelName stays the plain
// model string the cache layers key on.
func NewEmbedderChain(specs []ProviderSpec) (IEmbedder, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one ai provider is required")
	}
	entries := make([]EmbedderEntry, 0, len(specs))
	for _, spec := range specs {
		provider, err := NewEmbedProvider(spec.Provider, spec.Args)
		if err != nil {
			return nil, fmt.Errorf("build embed provider %s: %w", spec.Provider, err)
		}
		entries = append(entries, EmbedderEntry{
			Name:     spec.EmbedModel,
			Embedder: NewEmbedder(provider, spec.EmbedModel),
		})
	}
	if len(entries) == 1 {
		return entries[0].Embedder, nil
	}
	return NewGroupEmbedder(entries), nil
}
