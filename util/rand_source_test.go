package util

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureRandSource(t *testing.T) {
	source, err := NewSecureRandSource()
	require.NoError(t, err)

	rng := rand.New(source)
	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		v := rng.Int63()
		assert.GreaterOrEqual(t, v, int64(0))
		seen[v] = true
	}
	// 100 次采样不应该全是同一个值
	assert.Greater(t, len(seen), 1)
}

func TestSecureRandSourceSeedIsDeterministic(t *testing.T) {
	a, err := NewSecureRandSource()
	require.NoError(t, err)
	b, err := NewSecureRandSource()
	require.NoError(t, err)

	a.Seed(42)
	b.Seed(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Int63(), b.Int63())
	}
}
