// Package cache 实现了基于定长槽位数组的LRU缓存
// 不使用指针链表，而是用显式的前驱/后继槽位下标维护使用顺序，
// 配合 key->槽位下标 的瑞士表索引，淘汰和提升均为 O(1) 的下标操作
package cache

import (
	"fmt"

	"github.com/dolthub/swiss"

	"FlatKV/storage"
)

// nilSlot 表示空槽位下标，等价于链表中的 nil 指针
const nilSlot = -1

// slot 表示槽位数组中的一个槽位
// prev/next 是相邻槽位的下标，构成一条从最近使用到最久未使用的链
type slot[K comparable, V any] struct {
	key   K
	value V
	prev  int // 前驱槽位下标（更近使用的方向）
	next  int // 后继槽位下标（更久未使用的方向）
}

// LRUCache 定义 LRUCache 结构体
// 槽位数组按需增长到容量上限，之后淘汰的槽位被原地复用
type LRUCache[K comparable, V any] struct {
	// capacity 是缓存的最大容量，构造时保证大于0
	capacity int
	// slots 是槽位数组（arena），所有条目都存放在这里
	slots []slot[K, V]
	// free 是空闲槽位下标列表，Delete 释放的槽位在这里等待复用
	free []int
	// head 是最近使用条目的槽位下标
	head int
	// tail 是最久未使用条目的槽位下标
	tail int
	// index 是用于快速查找的 key->槽位下标 瑞士表
	index *swiss.Map[K, int]
}

// NewLRUCache 初始化一个新的 LRUCache
// 容量必须大于0：容量为0应当在持有缓存的那一层表示为"无缓存"，
// 而不是创建一个容量为0的缓存实例
func NewLRUCache[K comparable, V any](capacity int) (*LRUCache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid LRU cache capacity: %d", capacity)
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		slots:    make([]slot[K, V], 0, capacity),
		head:     nilSlot,
		tail:     nilSlot,
		index:    swiss.NewMap[K, int](uint32(capacity)),
	}, nil
}

// Put 插入或更新键值对
// 若键已存在则原地更新并提升为最近使用
// 若键不存在且已满，先淘汰最久未使用的条目（tail），复用其槽位
func (c *LRUCache[K, V]) Put(key K, value V) {
	if idx, ok := c.index.Get(key); ok {
		// 键已存在，原地更新
		c.slots[idx].value = value
		c.moveToFront(idx)
		return
	}

	var idx int
	switch {
	case c.index.Count() >= c.capacity:
		// 容量用尽，淘汰链尾并复用槽位
		idx = c.evictOldest()
	case len(c.free) > 0:
		// 优先复用空闲槽位
		idx = c.free[len(c.free)-1]
		c.free = c.free[:len(c.free)-1]
	default:
		// 槽位数组尚未长到容量上限，追加新槽位
		c.slots = append(c.slots, slot[K, V]{})
		idx = len(c.slots) - 1
	}

	c.slots[idx].key = key
	c.slots[idx].value = value
	c.attachFront(idx)
	c.index.Put(key, idx)
}

// Get 查找键对应的值，并返回布尔值表示是否存在
// 命中时将条目提升为最近使用，未命中不做任何修改
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	var zero V
	idx, ok := c.index.Get(key)
	if !ok {
		return zero, false
	}
	c.moveToFront(idx)
	return c.slots[idx].value, true
}

// Delete 删除指定键，释放的槽位进入空闲列表等待复用
func (c *LRUCache[K, V]) Delete(key K) error {
	idx, ok := c.index.Get(key)
	if !ok {
		return fmt.Errorf("cannot find value [%v] in LRU cache", key)
	}
	c.detach(idx)
	c.index.Delete(key)
	var zeroK K
	var zeroV V
	c.slots[idx].key = zeroK
	c.slots[idx].value = zeroV
	c.free = append(c.free, idx)
	return nil
}

// Len 返回当前缓存的条目数量
func (c *LRUCache[K, V]) Len() int {
	return c.index.Count()
}

// Cap 返回缓存的最大容量
func (c *LRUCache[K, V]) Cap() int {
	return c.capacity
}

// Entries 按最近使用到最久未使用的顺序导出所有缓存项
func (c *LRUCache[K, V]) Entries() []storage.Pair[K, V] {
	entries := make([]storage.Pair[K, V], 0, c.index.Count())
	for idx := c.head; idx != nilSlot; idx = c.slots[idx].next {
		entries = append(entries, storage.Pair[K, V]{
			Key:   c.slots[idx].key,
			Value: c.slots[idx].value,
		})
	}
	return entries
}

// evictOldest 淘汰最久未使用的条目，返回腾出的槽位下标
func (c *LRUCache[K, V]) evictOldest() int {
	idx := c.tail
	c.index.Delete(c.slots[idx].key)
	c.detach(idx)
	return idx
}

// detach 将槽位从使用顺序链中摘除，纯下标操作
func (c *LRUCache[K, V]) detach(idx int) {
	s := &c.slots[idx]
	if s.prev != nilSlot {
		c.slots[s.prev].next = s.next
	} else {
		c.head = s.next
	}
	if s.next != nilSlot {
		c.slots[s.next].prev = s.prev
	} else {
		c.tail = s.prev
	}
	s.prev, s.next = nilSlot, nilSlot
}

// attachFront 将槽位挂到链头（最近使用位置）
func (c *LRUCache[K, V]) attachFront(idx int) {
	s := &c.slots[idx]
	s.prev = nilSlot
	s.next = c.head
	if c.head != nilSlot {
		c.slots[c.head].prev = idx
	}
	c.head = idx
	if c.tail == nilSlot {
		c.tail = idx
	}
}

// moveToFront 将槽位提升到链头，O(1)
func (c *LRUCache[K, V]) moveToFront(idx int) {
	if c.head == idx {
		return
	}
	c.detach(idx)
	c.attachFront(idx)
}
