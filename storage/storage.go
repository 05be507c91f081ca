// Package storage 定义了FlatKV的存储接口和通用类型
// FlatKV 是一个嵌入式键值存储：平面文本文件持久化层
// 前置一个有界的LRU读缓存，并为每个调用方提供事务缓冲
package storage

// 存储层相关常量
var (
	// FieldDelimiter 记录的字段分隔符，一行中第一个 '=' 之前为键，之后为值
	FieldDelimiter = "="
	// MaxKeySize 键最大长度 32MB (限制单个键的最大大小，防止异常数据导致内存溢出)
	MaxKeySize = 32 << 20
	// MaxValueSize 值最大长度 32MB (限制单个值的最大大小，防止异常数据导致内存溢出)
	MaxValueSize = 32 << 20
)

// Pair 表示一个键值对
type Pair[K comparable, V any] struct {
	Key   K // 键
	Value V // 值
}

// KV 定义了事务性键值存储的能力面
// 这是引擎对外的核心抽象，每个调用方持有一个实现了该接口的会话
// 所有读写操作都要求事务处于激活状态，结果采用三态返回：
// err 区分"无活跃事务"等信号，found 区分"键不存在"与"值为空串"
type KV interface {
	Begin() error                                               // 开启事务，若已激活则返回 ErrTxnActive
	Commit() error                                              // 提交事务，原子地落盘并更新缓存
	Abort() error                                               // 放弃事务，丢弃全部暂存写入，不做任何I/O
	Get(key string) (value string, found bool, err error)       // 读取键对应的值
	Set(key, value string) (prev string, found bool, err error) // 暂存写入，返回写入前的旧值
	Del(key string) (prev string, found bool, err error)        // 暂存删除，返回删除前的旧值
}

// MemCache 定义了内存缓存接口
// 内存缓存用于缓存热点数据，减少对数据文件的线性扫描
// 实现了缓存淘汰策略，在容量有限的情况下保留最近使用的数据
type MemCache[KeyType comparable, ValueType any] interface {
	Put(key KeyType, value ValueType)               // 插入或更新缓存项，并提升为最近使用
	Get(key KeyType) (ValueType, bool)              // 查找缓存项，命中时提升为最近使用
	Len() int                                       // 当前缓存项数量
	Entries() []Pair[KeyType, ValueType]            // 按最近使用到最久未使用的顺序导出所有缓存项
}

// FileStore 定义了平面文件持久层接口
// 每行一条 "key=value" 记录，读写均为线性扫描
// 抽象成接口是为了在单元测试中注入内存实现
type FileStore interface {
	Get(key string) (string, error)     // 扫描文件查找键，未找到返回 ErrKeyNotFound
	Put(key string, value string) error // 写入或改写记录，保证每键至多一条记录
	Del(key string) error               // 删除键对应的记录，键不存在时为空操作
	Keys() ([]string, error)            // 列出文件中所有的键
}
