// Package database 实现了FlatKV的事务引擎
// 引擎把三个部件编排在一起：有界LRU读缓存、平面文件持久层、
// 每个调用方独占的事务缓冲（见 session.go）
// 读路径依次查询 缓冲 -> 缓存 -> 数据文件；写入只落入缓冲；
// 提交在一个同时持有文件锁和缓存锁的临界区内把缓冲刷进共享状态
//
// 一致性模型：并发活跃事务的写入在提交前互不可见，不做冲突检测，
// 两个事务读改写同一个键时后提交者获胜（read committed / last-writer-wins）
package database

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"FlatKV/config"
	"FlatKV/err_def"
	"FlatKV/storage"
	"FlatKV/storage/cache"
	"FlatKV/storage/filestore"
	"FlatKV/util"

	"github.com/dolthub/swiss"
)

// DB 是 FlatKV 的核心结构体，负责编排缓存、持久层和事务提交
//
// 锁纪律：所有可能持有多把锁的代码路径都遵循同一获取顺序——
// 先 storeMu 后 cacheMu；读路径对两把锁只做先后独立的获取，从不嵌套
type DB struct {
	opts *storage.Options

	store    storage.FileStore                             // 平面文件持久层，由 storeMu 保护
	memCache *cache.LRUCache[string, storage.CachePayload] // 读缓存，nil 表示关闭；由 cacheMu 保护

	filter *util.ShardedBloomFilter // 布隆过滤器，nil 表示关闭；自带分片锁

	storeMu sync.Mutex // 数据文件互斥锁
	cacheMu sync.Mutex // 缓存互斥锁

	closed atomic.Bool
}

// Open 打开或创建一个 FlatKV 实例
func Open(options ...storage.Option) (*DB, error) {
	cfg := storage.DefaultOptions()
	for _, opt := range options {
		opt(cfg)
	}

	store, err := filestore.New(cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("create file store failed: %w", err)
	}

	return OpenWithStore(store, options...)
}

// OpenWithStore 用给定的持久层实现打开一个 FlatKV 实例
// 单元测试用它注入内存存储替身
func OpenWithStore(store storage.FileStore, options ...storage.Option) (*DB, error) {
	cfg := storage.DefaultOptions()
	for _, opt := range options {
		opt(cfg)
	}

	db := &DB{
		opts:  cfg,
		store: store,
	}

	// 容量为0时引擎层表示为"无缓存"，不会创建容量为0的缓存实例
	if cfg.OpenMemCache && cfg.MemCacheSize > 0 {
		switch cfg.MemCacheDS {
		case storage.LRU:
			mc, err := cache.NewLRUCache[string, storage.CachePayload](cfg.MemCacheSize)
			if err != nil {
				return nil, fmt.Errorf("create mem cache failed: %w", err)
			}
			db.memCache = mc
		default:
			return nil, fmt.Errorf("unsupported memcache DS: %s", cfg.MemCacheDS)
		}
	}

	if cfg.OpenBloomFilter {
		filter, err := util.NewShardedBloomFilter(util.BloomConfig{
			ExpectedKeys:      cfg.BloomExpectedKeys,
			FalsePositiveRate: cfg.BloomFPRate,
		})
		if err != nil {
			return nil, fmt.Errorf("create filter failed: %w", err)
		}
		db.filter = filter

		// 用数据文件中已有的键预热过滤器
		if err := db.warmFilter(); err != nil {
			return nil, fmt.Errorf("warm filter failed: %w", err)
		}
	}

	return db, nil
}

// NewFlatDB 根据全局配置创建一个 FlatKV 实例
// dataFile 非空时覆盖配置中的数据文件路径
// cacheCapacity >= 0 时覆盖配置中的缓存容量，0 表示完全关闭缓存
func NewFlatDB(dataFile string, cacheCapacity int) (*DB, error) {
	var opts []storage.Option
	conf := config.Get()

	if conf != nil {
		if conf.Base.DataFile != "" {
			opts = append(opts, storage.WithDataFile(conf.Base.DataFile))
		}

		if conf.MemCache.Enable { // 如果启用内存缓存
			opts = append(opts, storage.WithOpenMemCache(true))
			opts = append(opts, storage.WithMemCacheDS(storage.LRU))
			opts = append(opts, storage.WithMemCacheSize(conf.MemCache.Size))
		} else { // 如果禁用内存缓存
			opts = append(opts, storage.WithOpenMemCache(false))
		}

		if conf.Bloom.Enable { // 如果启用布隆过滤器
			opts = append(opts, storage.WithOpenBloomFilter(true))
			if conf.Bloom.ExpectedKeys > 0 {
				opts = append(opts, storage.WithBloomExpectedKeys(conf.Bloom.ExpectedKeys))
			}
			if conf.Bloom.FalsePositiveRate > 0 {
				opts = append(opts, storage.WithBloomFPRate(conf.Bloom.FalsePositiveRate))
			}
		} else { // 如果禁用布隆过滤器
			opts = append(opts, storage.WithOpenBloomFilter(false))
		}
	}

	// 命令行参数优先于配置文件
	if dataFile != "" {
		opts = append(opts, storage.WithDataFile(dataFile))
	}
	if cacheCapacity >= 0 {
		if cacheCapacity > 0 {
			opts = append(opts, storage.WithOpenMemCache(true))
			opts = append(opts, storage.WithMemCacheDS(storage.LRU))
		}
		opts = append(opts, storage.WithMemCacheSize(cacheCapacity))
	}

	return Open(opts...)
}

// warmFilter 把数据文件中已有的键全部加入布隆过滤器
func (db *DB) warmFilter() error {
	db.storeMu.Lock()
	keys, err := db.store.Keys()
	db.storeMu.Unlock()
	if err != nil {
		return err
	}
	for _, key := range keys {
		db.filter.Add(key)
	}
	return nil
}

// load 是共享读路径：缓存 -> 布隆过滤器 -> 数据文件
// 会话在查完自己的事务缓冲后调用这里
// 未命中缓存时扫描数据文件，并把扫描结果回填缓存（fill-on-miss）：
// 找到的键回填真实值，找不到的键回填墓碑
// I/O故障记录日志并降级为"未找到"，不中断进程
func (db *DB) load(key string) (string, bool, error) {
	if db.closed.Load() {
		return "", false, err_def.ErrDBClosed
	}

	// 查询缓存（缓存锁）
	if db.memCache != nil {
		db.cacheMu.Lock()
		payload, ok := db.memCache.Get(key)
		db.cacheMu.Unlock()
		if ok {
			if payload.Tombstone {
				return "", false, nil
			}
			return payload.Value, true, nil
		}
	}

	// 布隆过滤器判定"一定不存在"的键直接按未找到处理，跳过文件扫描
	if db.filter != nil && !db.filter.Contains(key) {
		db.fillCache(key, storage.TombstonePayload())
		return "", false, nil
	}

	// 扫描数据文件（文件锁），随后回填缓存（缓存锁）
	// 两把锁先后独立获取，从不同时持有
	db.storeMu.Lock()
	value, err := db.store.Get(key)
	db.storeMu.Unlock()

	switch {
	case err == nil:
		db.fillCache(key, storage.ValuePayload(value))
		return value, true, nil
	case errors.Is(err, err_def.ErrKeyNotFound):
		// 缺失键也回填墓碑，后续同键查询不再扫描文件
		db.fillCache(key, storage.TombstonePayload())
		return "", false, nil
	case errors.Is(err, err_def.ErrReadFailed):
		log.Printf("read data file failed, degrade to not-found: %v", err)
		return "", false, nil
	default:
		return "", false, err
	}
}

// fillCache 将读取结果回填缓存
func (db *DB) fillCache(key string, payload storage.CachePayload) {
	if db.memCache == nil {
		return
	}
	db.cacheMu.Lock()
	db.memCache.Put(key, payload)
	db.cacheMu.Unlock()
}

// commit 把一个会话暂存的写入和删除刷进数据文件和缓存
// 刷写全程同时持有两把锁：先文件锁，后缓存锁（全局统一的多锁顺序）
// 保证本次刷写对其他事务的提交和任何持文件锁的读取是不可分割的，
// 不会出现两个提交逐条交错的情况
// 单条记录的I/O故障记录日志后跳过（该写入被静默丢弃，接受的限制），
// 不回滚已刷写的部分，也不使提交失败
func (db *DB) commit(sets *swiss.Map[string, string], dels *swiss.Map[string, struct{}]) error {
	if db.closed.Load() {
		return err_def.ErrDBClosed
	}

	db.storeMu.Lock()
	defer db.storeMu.Unlock()
	db.cacheMu.Lock()
	defer db.cacheMu.Unlock()

	// 应用暂存的写入：改写文件记录，真实值进缓存
	sets.Iter(func(key string, value string) bool {
		if err := db.store.Put(key, value); err != nil {
			log.Printf("commit: write key %q dropped: %v", key, err)
			return false
		}
		if db.memCache != nil {
			db.memCache.Put(key, storage.ValuePayload(value))
		}
		if db.filter != nil {
			db.filter.Add(key)
		}
		return false
	})

	// 应用暂存的删除：移除文件记录，墓碑进缓存
	dels.Iter(func(key string, _ struct{}) bool {
		if err := db.store.Del(key); err != nil {
			log.Printf("commit: delete key %q dropped: %v", key, err)
			return false
		}
		if db.memCache != nil {
			db.memCache.Put(key, storage.TombstonePayload())
		}
		return false
	})

	return nil
}

// DumpCache 按最近使用到最久未使用的顺序导出缓存内容
// 墓碑显示为 <deleted>；调试接口，不属于事务契约
func (db *DB) DumpCache() []string {
	if db.memCache == nil {
		return nil
	}

	db.cacheMu.Lock()
	defer db.cacheMu.Unlock()

	entries := db.memCache.Entries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Value.Tombstone {
			out = append(out, e.Key+": <deleted>")
		} else {
			out = append(out, e.Key+": "+e.Value.Value)
		}
	}
	return out
}

// CacheEnabled 返回读缓存是否开启
func (db *DB) CacheEnabled() bool {
	return db.memCache != nil
}

// Close 关闭数据库
// 已有会话上的后续操作将返回 ErrDBClosed
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return err_def.ErrDBClosed
	}
	return nil
}
