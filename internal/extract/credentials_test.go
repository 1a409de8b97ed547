package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticPool_EmptyKeysRejected(t *testing.T) {
	_, err := NewStaticPool(nil, StrategyPinned)
	require.Error(t, err)
}

func TestStaticPool_PinnedAlwaysFirst(t *testing.T) {
	pool, err := NewStaticPool([]string{"k1", "k2", "k3"}, StrategyPinned)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		cred := pool.Next()
		assert.Equal(t, "key-1", cred.ID)
		assert.Equal(t, "k1", cred.Key)
	}
}

func TestStaticPool_DefaultStrategyIsPinned(t *testing.T) {
	pool, err := NewStaticPool([]string{"k1", "k2"}, "")
	require.NoError(t, err)
	assert.Equal(t, "key-1", pool.Next().ID)
	assert.Equal(t, "key-1", pool.Next().ID)
}

func TestStaticPool_RoundRobinRotates(t *testing.T) {
	pool, err := NewStaticPool([]string{"k1", "k2", "k3"}, StrategyRoundRobin)
	require.NoError(t, err)

	assert.Equal(t, "key-1", pool.Next().ID)
	assert.Equal(t, "key-2", pool.Next().ID)
	assert.Equal(t, "key-3", pool.Next().ID)
	assert.Equal(t, "key-1", pool.Next().ID)
}
