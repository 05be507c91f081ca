package util

import (
	"fmt"
	"hash"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
)

const (
	// 默认分片数,必须是2的幂
	defaultShards = 16
	// 默认hash函数个数下限
	minHashFuncs = 2
)

// BloomConfig 布隆过滤器配置选项
type BloomConfig struct {
	ExpectedKeys      uint64  // 预期键数量
	FalsePositiveRate float64 // 期望误判率
	NumShards         uint32  // 分片数量,0 表示使用默认值
}

// ShardedBloomFilter 分片布隆过滤器
// 在引擎读路径上前置于数据文件：过滤器判定"一定不存在"的键
// 直接按未找到处理，省掉一次 O(文件大小) 的线性扫描
// 不支持删除，已删除键残留的标记只会造成一次多余扫描，不影响正确性
type ShardedBloomFilter struct {
	shards    []bloomShard // 分片数组
	k         uint32       // hash函数个数
	m         uint64       // 总bit数
	n         atomic.Uint64
	shardMask uint32     // 分片掩码
	shardBits uint64     // 每个分片的bit数
	hashPool  *sync.Pool // hash函数池
}

// bloomShard 单个分片，独立加锁以减少争用
type bloomShard struct {
	bits []uint64
	sync.RWMutex
}

// NewShardedBloomFilter 创建新的分片布隆过滤器
func NewShardedBloomFilter(cfg BloomConfig) (*ShardedBloomFilter, error) {
	if cfg.ExpectedKeys == 0 {
		return nil, fmt.Errorf("expected keys must be > 0")
	}
	if cfg.FalsePositiveRate <= 0 || cfg.FalsePositiveRate >= 1 {
		return nil, fmt.Errorf("false positive rate must be in (0,1)")
	}

	numShards := cfg.NumShards
	if numShards == 0 {
		numShards = defaultShards
	}
	if !isPowerOfTwo(uint64(numShards)) {
		numShards = uint32(nextPowerOf2(uint64(numShards)))
	}

	// 按期望误判率计算最优总bit数和hash函数个数
	m := optimalBits(cfg.ExpectedKeys, cfg.FalsePositiveRate)
	k := optimalHashFuncs(cfg.ExpectedKeys, m)

	// 每个分片的bit数向上取整到64的倍数
	shardBits := nextPowerOf2(m/uint64(numShards) + 63)
	shards := make([]bloomShard, numShards)
	for i := range shards {
		shards[i].bits = make([]uint64, shardBits/64)
	}

	return &ShardedBloomFilter{
		shards:    shards,
		k:         k,
		m:         uint64(numShards) * shardBits,
		shardMask: numShards - 1,
		shardBits: shardBits,
		hashPool: &sync.Pool{
			New: func() interface{} {
				return fnv.New64a()
			},
		},
	}, nil
}

// Add 添加一个键
func (bf *ShardedBloomFilter) Add(key string) {
	if len(key) == 0 {
		return
	}

	h1, h2 := bf.baseHashes(key)
	for i := uint32(0); i < bf.k; i++ {
		combined := h1 + uint64(i)*h2
		shard := &bf.shards[uint32(combined)&bf.shardMask]
		bitIndex := (combined >> 16) % bf.shardBits

		shard.Lock()
		shard.bits[bitIndex/64] |= 1 << (bitIndex % 64)
		shard.Unlock()
	}
	bf.n.Add(1)
}

// Contains 判断键是否可能存在
// 返回 false 表示键一定没有被添加过，返回 true 表示可能存在（有误判率）
func (bf *ShardedBloomFilter) Contains(key string) bool {
	if len(key) == 0 {
		return false
	}

	h1, h2 := bf.baseHashes(key)
	for i := uint32(0); i < bf.k; i++ {
		combined := h1 + uint64(i)*h2
		shard := &bf.shards[uint32(combined)&bf.shardMask]
		bitIndex := (combined >> 16) % bf.shardBits

		shard.RLock()
		isSet := shard.bits[bitIndex/64]&(1<<(bitIndex%64)) != 0
		shard.RUnlock()

		if !isSet {
			return false
		}
	}
	return true
}

// Count 返回已添加的键数量
func (bf *ShardedBloomFilter) Count() uint64 {
	return bf.n.Load()
}

// baseHashes 计算双hash基值，k个hash值由两个基值线性组合派生
func (bf *ShardedBloomFilter) baseHashes(key string) (uint64, uint64) {
	hashFunc := bf.hashPool.Get().(hash.Hash64)
	defer bf.hashPool.Put(hashFunc)

	hashFunc.Reset()
	_, _ = hashFunc.Write([]byte(key))
	h1 := hashFunc.Sum64()

	hashFunc.Reset()
	_, _ = hashFunc.Write([]byte(key))
	_, _ = hashFunc.Write([]byte{0xff})
	h2 := hashFunc.Sum64() | 1

	return h1, h2
}

// optimalBits 计算最优bit数
func optimalBits(n uint64, p float64) uint64 {
	return uint64(math.Ceil(-float64(n) * math.Log(p) / math.Pow(math.Log(2), 2)))
}

// optimalHashFuncs 计算最优hash函数个数
func optimalHashFuncs(n, m uint64) uint32 {
	k := uint32(math.Round(float64(m/n) * math.Log(2)))
	if k < minHashFuncs {
		k = minHashFuncs
	}
	return k
}

// isPowerOfTwo 判断是否是2的幂
func isPowerOfTwo(x uint64) bool {
	return x != 0 && (x&(x-1)) == 0
}

// nextPowerOf2 计算下一个2的幂
func nextPowerOf2(x uint64) uint64 {
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	return x
}
