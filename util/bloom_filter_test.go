package util

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBloomConfigValidation(t *testing.T) {
	_, err := NewShardedBloomFilter(BloomConfig{ExpectedKeys: 0, FalsePositiveRate: 0.01})
	require.Error(t, err)

	_, err = NewShardedBloomFilter(BloomConfig{ExpectedKeys: 100, FalsePositiveRate: 0})
	require.Error(t, err)

	_, err = NewShardedBloomFilter(BloomConfig{ExpectedKeys: 100, FalsePositiveRate: 1})
	require.Error(t, err)
}

func TestBloomNoFalseNegatives(t *testing.T) {
	bf, err := NewShardedBloomFilter(BloomConfig{
		ExpectedKeys:      1000,
		FalsePositiveRate: 0.01,
	})
	require.NoError(t, err)

	// 添加过的键必须全部命中，布隆过滤器不允许漏判
	for i := 0; i < 1000; i++ {
		bf.Add(fmt.Sprintf("key-%d", i))
	}
	for i := 0; i < 1000; i++ {
		assert.True(t, bf.Contains(fmt.Sprintf("key-%d", i)), "key-%d", i)
	}
	assert.Equal(t, uint64(1000), bf.Count())
}

func TestBloomFalsePositiveRate(t *testing.T) {
	bf, err := NewShardedBloomFilter(BloomConfig{
		ExpectedKeys:      1000,
		FalsePositiveRate: 0.01,
	})
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		bf.Add(fmt.Sprintf("present-%d", i))
	}

	// 从未添加过的键偶尔误判可以接受，但不能大面积误判
	falsePositives := 0
	for i := 0; i < 1000; i++ {
		if bf.Contains(fmt.Sprintf("absent-%d", i)) {
			falsePositives++
		}
	}
	assert.Less(t, falsePositives, 100, "false positive rate too high: %d/1000", falsePositives)
}

func TestBloomEmptyKey(t *testing.T) {
	bf, err := NewShardedBloomFilter(BloomConfig{
		ExpectedKeys:      16,
		FalsePositiveRate: 0.01,
	})
	require.NoError(t, err)

	// 空键被忽略，既不加入也不命中
	bf.Add("")
	assert.False(t, bf.Contains(""))
	assert.Equal(t, uint64(0), bf.Count())
}

func TestBloomShardRounding(t *testing.T) {
	// 非2的幂的分片数被向上取整
	bf, err := NewShardedBloomFilter(BloomConfig{
		ExpectedKeys:      64,
		FalsePositiveRate: 0.05,
		NumShards:         3,
	})
	require.NoError(t, err)

	bf.Add("a")
	assert.True(t, bf.Contains("a"))
}
