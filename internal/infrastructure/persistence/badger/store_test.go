package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/documents"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestOpen_Persistent(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(DefaultConfig(dir))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "groups", "g", documents.Document{"secret": "s"}))
	require.NoError(t, s.Close())

	s, err = Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer s.Close()

	doc, err := s.Get(ctx, "groups", "g")
	require.NoError(t, err)
	assert.Equal(t, "s", doc.String("secret"))
}

func TestStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Get(ctx, "groups", "missing")
	assert.ErrorIs(t, err, documents.ErrDocumentNotFound)

	require.NoError(t, s.Set(ctx, "groups", "algo-club", documents.Document{
		"secret":  "xyz9",
		"privacy": true,
		"members": []string{"alice"},
	}))

	doc, err := s.Get(ctx, "groups", "algo-club")
	require.NoError(t, err)
	assert.Equal(t, "xyz9", doc.String("secret"))
	assert.True(t, doc.Bool("privacy"))
	assert.Equal(t, []string{"alice"}, doc.StringList("members"))

	require.NoError(t, s.Delete(ctx, "groups", "algo-club"))
	_, err = s.Get(ctx, "groups", "algo-club")
	assert.ErrorIs(t, err, documents.ErrDocumentNotFound)

	// Deleting twice is fine.
	assert.NoError(t, s.Delete(ctx, "groups", "algo-club"))
}

func TestStore_KeysAreNormalized(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Set(ctx, "groups", "  algo   club ", documents.Document{"secret": "x"}))

	doc, err := s.Get(ctx, "groups", "algo club")
	require.NoError(t, err)
	assert.Equal(t, "x", doc.String("secret"))
}

func TestStore_CollectionsAreSeparate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Set(ctx, "users", "alice", documents.Document{"groups": []string{}}))
	_, err := s.Get(ctx, "groups", "alice")
	assert.ErrorIs(t, err, documents.ErrDocumentNotFound)
}

func TestStore_UpdateMerges(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.Update(ctx, "groups", "nope", documents.Document{"privacy": true})
	assert.ErrorIs(t, err, documents.ErrDocumentNotFound)

	require.NoError(t, s.Set(ctx, "groups", "g", documents.Document{"secret": "a", "privacy": false}))
	require.NoError(t, s.Update(ctx, "groups", "g", documents.Document{"privacy": true}))

	doc, err := s.Get(ctx, "groups", "g")
	require.NoError(t, err)
	assert.Equal(t, "a", doc.String("secret"))
	assert.True(t, doc.Bool("privacy"))
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Set(ctx, "groups", "g", documents.Document{}))

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			field := fmt.Sprintf("f%d", i)
			assert.NoError(t, s.Update(ctx, "groups", "g", documents.Document{field: true}))
		}()
	}
	wg.Wait()

	doc, err := s.Get(ctx, "groups", "g")
	require.NoError(t, err)
	for i := range 4 {
		assert.True(t, doc.Bool(fmt.Sprintf("f%d", i)))
	}
}
