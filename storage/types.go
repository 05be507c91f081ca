package storage

// CachePayload 表示缓存条目携带的负载
// 负载要么是一个真实的值，要么是一个删除标记（墓碑）
// 墓碑与"键不在缓存中"是两种不同的状态：
// 墓碑命中直接返回"不存在"，无需再扫描数据文件
type CachePayload struct {
	Value     string // 缓存的值，Tombstone 为 true 时无意义
	Tombstone bool   // 墓碑标记，表示该键已被删除
}

// ValuePayload 构造一个携带真实值的缓存负载
func ValuePayload(value string) CachePayload {
	return CachePayload{Value: value}
}

// TombstonePayload 构造一个墓碑负载，用于在缓存中记录一次删除
func TombstonePayload() CachePayload {
	return CachePayload{Tombstone: true}
}
