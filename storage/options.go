package storage

// MemCacheType 定义了内存缓存的类型 (用于选择不同的缓存淘汰策略)
type MemCacheType string

// LRU 支持的内存缓存类型常量
const (
	LRU MemCacheType = "lru" // 最近最少使用缓存策略，淘汰最久未使用的数据
)

// Options 存储引擎的配置选项
// 包含了引擎的所有可配置参数，用于自定义引擎的行为
type Options struct {
	// 基本配置
	DataFile string // 数据文件路径，所有 "key=value" 记录存放在这一个文件中

	// 内存缓存相关配置
	OpenMemCache bool         // 是否开启内存缓存，开启后可提高热点数据访问速度
	MemCacheDS   MemCacheType // 内存缓存数据结构类型，目前支持LRU
	MemCacheSize int          // 内存缓存容量，<=0 时视为关闭缓存

	// 布隆过滤器相关配置
	OpenBloomFilter   bool    // 是否开启布隆过滤器，开启后未写入过的键可跳过文件扫描
	BloomExpectedKeys uint64  // 布隆过滤器预期键数量
	BloomFPRate       float64 // 布隆过滤器期望误判率
}

// Option 定义了配置选项的函数类型
// 用于以函数选项模式设置存储引擎的配置参数
type Option func(opt *Options)

// DefaultOptions 返回存储引擎的默认配置选项
// 提供了一组合理的默认值，适用于大多数场景
func DefaultOptions() *Options {
	return &Options{
		DataFile: "/tmp/flatkv/data.txt", // 默认数据文件

		// 内存缓存配置
		OpenMemCache: true,    // 默认开启内存缓存
		MemCacheDS:   LRU,     // 默认使用LRU缓存策略
		MemCacheSize: 1 << 10, // 缓存默认容量1024项

		// 布隆过滤器配置
		OpenBloomFilter:   true,    // 默认开启布隆过滤器
		BloomExpectedKeys: 1 << 10, // 预期1024个键
		BloomFPRate:       0.01,    // 误判率1%
	}
}

// WithDataFile 设置数据文件路径的选项函数
// 参数 dataFile 指定 "key=value" 记录文件的位置
func WithDataFile(dataFile string) Option {
	return func(opt *Options) {
		opt.DataFile = dataFile
	}
}

func WithOpenMemCache(openMemCache bool) Option {
	return func(opt *Options) {
		opt.OpenMemCache = openMemCache
	}
}

func WithMemCacheDS(memCacheDS MemCacheType) Option {
	return func(opt *Options) {
		opt.MemCacheDS = memCacheDS
	}
}

// WithMemCacheSize 设置缓存容量
// 容量为 0 表示完全关闭缓存，引擎中不会存在容量为 0 的缓存实例
func WithMemCacheSize(memCacheSize int) Option {
	return func(opt *Options) {
		opt.MemCacheSize = memCacheSize
		if memCacheSize <= 0 {
			opt.OpenMemCache = false
		}
	}
}

func WithOpenBloomFilter(openBloomFilter bool) Option {
	return func(opt *Options) {
		opt.OpenBloomFilter = openBloomFilter
	}
}

func WithBloomExpectedKeys(expectedKeys uint64) Option {
	return func(opt *Options) {
		opt.BloomExpectedKeys = expectedKeys
	}
}

func WithBloomFPRate(fpRate float64) Option {
	return func(opt *Options) {
		opt.BloomFPRate = fpRate
	}
}
