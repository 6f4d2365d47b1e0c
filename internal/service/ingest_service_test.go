package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inboxmem/inboxmem/internal/ai"
	"github.com/inboxmem/inboxmem/internal/kb"
	"github.com/inboxmem/inboxmem/internal/model"
	appErr "github.com/inboxmem/inboxmem/internal/pkg/errors"
	"github.com/inboxmem/inboxmem/internal/vecstore"
)

type fakeEmailStore struct {
	mu     sync.Mutex
	emails map[string]*model.Email

	states      map[string]string
	chunkCounts map[string]int
}

func newFakeEmailStore() *fakeEmailStore {
	return &fakeEmailStore{
		emails:      make(map[string]*model.Email),
		states:      make(map[string]string),
		chunkCounts: make(map[string]int),
	}
}

func (f *fakeEmailStore) Create(ctx context.Context, email *model.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails[email.ID] = email
	f.states[email.ID] = email.IndexState
	return nil
}

func (f *fakeEmailStore) GetForUser(ctx context.Context, userID, emailID string) (*model.Email, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.emails[emailID]
	if !ok || email.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return email, nil
}

func (f *fakeEmailStore) SetIndexState(ctx context.Context, emailID, state string, chunkCount int, mtime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[emailID] = state
	f.chunkCounts[emailID] = chunkCount
	return nil
}

func (f *fakeEmailStore) Delete(ctx context.Context, userID, emailID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.emails, emailID)
	return nil
}

func (f *fakeEmailStore) state(emailID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[emailID]
}

func (f *fakeEmailStore) chunkCount(emailID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chunkCounts[emailID]
}

// countingEmbedder returns unit vectors and can fail from a given call on.
type countingEmbedder struct {
	dims      int
	calls     int
	failAfter int
}

func (f *countingEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) ([]float32, error) {
	f.calls++
	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, fmt.Errorf("embedding quota exhausted")
	}
	vec := make([]float32, f.dims)
	vec[f.calls%f.dims] = 1
	return vec, nil
}

func (f *countingEmbedder) ModelName() string {
	return "counting-embed"
}

func newIngestFixture(t *testing.T, failAfter int) (*IngestService, *fakeEmailStore, *vecstore.MemoryStore) {
	t.Helper()
	chunker, err := kb.NewChunker(100, 20)
	require.NoError(t, err)
	embedder := kb.NewEmbedder(&countingEmbedder{dims: 4, failAfter: failAfter}, 4)
	emails := newFakeEmailStore()
	store := vecstore.NewMemoryStore()
	return NewIngestService(emails, chunker, embedder, store), emails, store
}

func seedEmail(t *testing.T, emails *fakeEmailStore, id, userID, body string) {
	t.Helper()
	require.NoError(t, emails.Create(context.Background(), &model.Email{
		ID:          id,
		UserID:      userID,
		Subject:     "Fwd: notes",
		ContentText: body,
		IndexState:  model.IndexStatePending,
	}))
}

func TestIngestSuccess(t *testing.T) {
	svc, emails, store := newIngestFixture(t, 0)
	body := strings.Repeat("interesting fact. ", 20)
	seedEmail(t, emails, "e1", "alice", body)

	require.NoError(t, svc.Ingest(context.Background(), "alice", "e1"))
	require.Equal(t, model.IndexStateIndexed, emails.state("e1"))
	require.Greater(t, emails.chunkCount("e1"), 1)
	require.Equal(t, emails.chunkCount("e1"), store.Count("alice"))
}

func TestIngestEmptyContent(t *testing.T) {
	svc, emails, store := newIngestFixture(t, 0)
	seedEmail(t, emails, "e1", "alice", "   \n  ")

	require.NoError(t, svc.Ingest(context.Background(), "alice", "e1"))
	require.Equal(t, model.IndexStateIndexed, emails.state("e1"))
	require.Equal(t, 0, emails.chunkCount("e1"))
	require.Equal(t, 0, store.Count("alice"))
}

func TestIngestPartialFailureKeepsStoredChunks(t *testing.T) {
	svc, emails, store := newIngestFixture(t, 2)
	body := strings.Repeat("interesting fact. ", 40)
	seedEmail(t, emails, "e1", "alice", body)

	err := svc.Ingest(context.Background(), "alice", "e1")
	require.Error(t, err)
	require.Equal(t, model.IndexStateFailed, emails.state("e1"))
	require.Equal(t, 2, emails.chunkCount("e1"))
	require.Equal(t, 2, store.Count("alice"))
}

func TestIngestRetryIsIdempotent(t *testing.T) {
	svc, emails, store := newIngestFixture(t, 0)
	body := strings.Repeat("interesting fact. ", 20)
	seedEmail(t, emails, "e1", "alice", body)

	require.NoError(t, svc.Ingest(context.Background(), "alice", "e1"))
	first := store.Count("alice")
	require.NoError(t, svc.Ingest(context.Background(), "alice", "e1"))
	require.Equal(t, first, store.Count("alice"))
}

func TestIngestUnknownEmail(t *testing.T) {
	svc, _, _ := newIngestFixture(t, 0)
	err := svc.Ingest(context.Background(), "alice", "missing")
	require.Error(t, err)
}

func TestRemoveDeletesVectorsAndRow(t *testing.T) {
	svc, emails, store := newIngestFixture(t, 0)
	body := strings.Repeat("interesting fact. ", 20)
	seedEmail(t, emails, "e1", "alice", body)
	require.NoError(t, svc.Ingest(context.Background(), "alice", "e1"))
	require.Greater(t, store.Count("alice"), 0)

	require.NoError(t, svc.Remove(context.Background(), "alice", "e1"))
	require.Equal(t, 0, store.Count("alice"))
	_, err := emails.GetForUser(context.Background(), "alice", "e1")
	require.Error(t, err)
}

func TestChunkRecordIDStable(t *testing.T) {
	require.Equal(t, chunkRecordID("e1", 3), chunkRecordID("e1", 3))
	require.NotEqual(t, chunkRecordID("e1", 3), chunkRecordID("e1", 4))
	require.NotEqual(t, chunkRecordID("e1", 3), chunkRecordID("e2", 3))
}
