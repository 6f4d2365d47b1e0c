package vecstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func record(id, emailRefID string, seq int, embedding []float32) Record {
	return Record{
		ID:         id,
		EmailRefID: emailRefID,
		Embedding:  embedding,
		Text:       "chunk " + id,
		Sequence:   seq,
	}
}

func TestMemoryStoreTenantIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Collection("alice").Add(ctx, []Record{
		record("r1", "e1", 0, []float32{1, 0}),
	}))
	require.NoError(t, store.Collection("bob").Add(ctx, []Record{
		record("r2", "e2", 0, []float32{1, 0}),
	}))

	outcome := store.Collection("alice").Search(ctx, []float32{1, 0}, 10)
	require.False(t, outcome.Degraded)
	require.Len(t, outcome.Records, 1)
	require.Equal(t, "r1", outcome.Records[0].ID)
}

func TestMemoryStoreUpsertByID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	collection := store.Collection("alice")

	require.NoError(t, collection.Add(ctx, []Record{record("r1", "e1", 0, []float32{1, 0})}))
	updated := record("r1", "e1", 0, []float32{0, 1})
	updated.Text = "updated"
	require.NoError(t, collection.Add(ctx, []Record{updated}))

	require.Equal(t, 1, store.Count("alice"))
	outcome := collection.Search(ctx, []float32{0, 1}, 1)
	require.Equal(t, "updated", outcome.Records[0].Text)
}

func TestMemoryStoreDeleteBySource(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	collection := store.Collection("alice")

	require.NoError(t, collection.Add(ctx, []Record{
		record("r1", "e1", 0, []float32{1, 0}),
		record("r2", "e1", 1, []float32{0, 1}),
		record("r3", "e2", 0, []float32{1, 1}),
	}))

	require.True(t, collection.DeleteBySource(ctx, "e1"))
	require.Equal(t, 1, store.Count("alice"))

	// Deleting again is a no-op, not a failure.
	require.True(t, collection.DeleteBySource(ctx, "e1"))
	require.Equal(t, 1, store.Count("alice"))
}

func TestMemoryStoreSearchRanksBySimilarity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	collection := store.Collection("alice")

	require.NoError(t, collection.Add(ctx, []Record{
		record("far", "e1", 0, []float32{0, 1}),
		record("near", "e1", 1, []float32{1, 0.1}),
		record("exact", "e1", 2, []float32{1, 0}),
	}))

	outcome := collection.Search(ctx, []float32{1, 0}, 2)
	require.False(t, outcome.Degraded)
	require.Len(t, outcome.Records, 2)
	require.Equal(t, "exact", outcome.Records[0].ID)
	require.Equal(t, "near", outcome.Records[1].ID)
}

func TestMemoryStoreSearchEmptyCollection(t *testing.T) {
	store := NewMemoryStore()
	outcome := store.Collection("nobody").Search(context.Background(), []float32{1, 0}, 5)
	require.False(t, outcome.Degraded)
	require.Empty(t, outcome.Records)
}

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, float64(cosineSimilarity([]float32{1, 0}, []float32{2, 0})), 1e-6)
	require.InDelta(t, 0.0, float64(cosineSimilarity([]float32{1, 0}, []float32{0, 1})), 1e-6)
	require.Equal(t, float32(0), cosineSimilarity([]float32{1, 0}, []float32{1}))
	require.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
