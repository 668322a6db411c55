package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKeyIsPermutationInvariant(t *testing.T) {
	tables := []string{"t3", "t1", "t2"}
	relations := []string{"r2", "r1"}
	want := "t1:t2:t3|r1:r2"
	assert.Equal(t, want, CanonicalKey(tables, relations))

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(tables), func(a, b int) { tables[a], tables[b] = tables[b], tables[a] })
		rng.Shuffle(len(relations), func(a, b int) { relations[a], relations[b] = relations[b], relations[a] })
		assert.Equal(t, want, CanonicalKey(tables, relations))
	}

	assert.Equal(t, want, CanonicalKey([]string{"t1", "t2", "t3", "t1"}, []string{"r1", "r2", "r2"}))
	assert.Equal(t, "|", CanonicalKey(nil, nil))
}

func TestSavedQueueMapJSON(t *testing.T) {
	m := SavedQueueMap{"t1|r1": {"a", "b"}}
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)

	decoded, err := ReadSavedQueueMap(&buf)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)

	_, err = ReadSavedQueueMap(strings.NewReader("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode saved queues")
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, errors.Cause(err), &syntaxErr)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(SavedQueueMap{"k": {"a"}})

	ids, ok, err := store.LoadQueue(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, ids)

	ids[0] = "mutated"
	ids, _, _ = store.LoadQueue(ctx, "k")
	assert.Equal(t, []string{"a"}, ids)

	_, ok, err = store.LoadQueue(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveQueue(ctx, "other", []string{"x", "y"}))
	assert.Equal(t, SavedQueueMap{"k": {"a"}, "other": {"x", "y"}}, store.Snapshot())
}
