package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursechat/internal/domain"
)

func TestGetUnknownSessionIsEmpty(t *testing.T) {
	store := NewStore(2)
	assert.Empty(t, store.Get("nope"))
}

func TestAppendCreatesSessionImplicitly(t *testing.T) {
	store := NewStore(2)
	store.Append("s1", domain.Exchange{Query: "q1", Answer: "a1"})

	history := store.Get("s1")
	require.Len(t, history, 1)
	assert.Equal(t, "q1", history[0].Query)
	assert.Equal(t, "a1", history[0].Answer)
}

func TestHistoryIsBoundedFIFO(t *testing.T) {
	const limit = 3
	store := NewStore(limit)
	for i := 0; i < limit+1; i++ {
		store.Append("s1", domain.Exchange{
			Query:  fmt.Sprintf("q%d", i),
			Answer: fmt.Sprintf("a%d", i),
		})
	}

	history := store.Get("s1")
	require.Len(t, history, limit)
	// oldest exchange evicted, relative order preserved
	for i := 0; i < limit; i++ {
		assert.Equal(t, fmt.Sprintf("q%d", i+1), history[i].Query)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	store := NewStore(2)
	store.Append("a", domain.Exchange{Query: "qa", Answer: "aa"})
	store.Append("b", domain.Exchange{Query: "qb", Answer: "ab"})

	require.Len(t, store.Get("a"), 1)
	require.Len(t, store.Get("b"), 1)
	assert.Equal(t, "qa", store.Get("a")[0].Query)
	assert.Equal(t, "qb", store.Get("b")[0].Query)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore(2)
	store.Append("s1", domain.Exchange{Query: "q1", Answer: "a1"})

	history := store.Get("s1")
	history[0].Query = "mutated"
	assert.Equal(t, "q1", store.Get("s1")[0].Query)
}

func TestNewIDIsUnique(t *testing.T) {
	store := NewStore(2)
	assert.NotEqual(t, store.NewID(), store.NewID())
}
