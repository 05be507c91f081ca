package config

import (
	"log"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper" // 用于识别配置文件，并且支持热更新
)

type BaseConfig struct {
	DataFile string // 数据文件路径
}

type MemCacheConfig struct {
	Enable bool // 启用缓存
	Size   int  // 缓存容量（条目数），0 表示关闭缓存
}

type BloomConfig struct {
	Enable            bool    // 启用布隆过滤器
	ExpectedKeys      uint64  // 预期键数量
	FalsePositiveRate float64 // 期望误判率
}

type WorkloadConfig struct {
	Workers int // 演示负载的工作协程数量
	Rounds  int // 每个工作协程执行的事务轮数
}

type Config struct {
	Base     BaseConfig     // 基础配置
	MemCache MemCacheConfig // 缓存配置
	Bloom    BloomConfig    // 布隆过滤器配置
	Workload WorkloadConfig // 演示负载配置
}

var (
	conf     *Config      // 全局配置
	confOnce sync.Once    // 确保配置只初始化一次
	mu       sync.RWMutex // 配置读写锁
)

// Get 获取配置
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return conf
}

// 加载配置文件
func loadConfig(v *viper.Viper) *Config {
	cfg := &Config{} // 创建配置实例

	cfg.Base.DataFile = v.GetString("base.data_file")

	// 加载缓存配置
	cfg.MemCache.Enable = v.GetBool("mem_cache.enable")
	cfg.MemCache.Size = v.GetInt("mem_cache.size")

	// 加载布隆过滤器配置
	cfg.Bloom.Enable = v.GetBool("bloom.enable")
	cfg.Bloom.ExpectedKeys = v.GetUint64("bloom.expected_keys")
	cfg.Bloom.FalsePositiveRate = v.GetFloat64("bloom.false_positive_rate")

	// 加载演示负载配置
	cfg.Workload.Workers = v.GetInt("workload.workers")
	cfg.Workload.Rounds = v.GetInt("workload.rounds")

	return cfg
}

// Init 初始化配置
func Init(configPath string) error {
	var initErr error
	confOnce.Do(func() {
		v := viper.New()
		v.SetConfigFile(configPath) // 设置配置文件路径

		if err := v.ReadInConfig(); err != nil {
			initErr = err
			log.Printf("read config file failed: %v\n", err)
			return
		}

		mu.Lock()
		conf = loadConfig(v)

		// 配置文件热更新监听
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Printf("config file changed: %s\n", e.Name)

			// 重新加载配置
			newV := viper.New()
			newV.SetConfigFile(configPath)

			if err := newV.ReadInConfig(); err != nil {
				log.Printf("read config file failed: %v\n", err)
				return
			}

			// 更新配置文件
			newConfig := loadConfig(newV)

			mu.Lock()
			conf = newConfig
			mu.Unlock()

			log.Printf("config file change reloaded")
		})

		mu.Unlock()
	})
	return initErr
}
