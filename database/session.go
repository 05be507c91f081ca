package database

import (
	"sort"

	"FlatKV/err_def"
	"FlatKV/storage"
	"FlatKV/storage/filestore"

	"github.com/dolthub/swiss"
)

// Session 是一个调用方的逻辑事务上下文
// 持有该调用方独占的事务缓冲：暂存写入表、暂存删除集和激活标志
// 事务边界由显式的 Session 值表达而不是协程身份，
// 因此一个协程里可以同时存在多个互相隔离的"调用方"（便于测试）
//
// Session 不做任何同步：缓冲只属于它的持有者，禁止跨协程共享同一个 Session
// 状态机只有 Inactive/Active 两个状态，不支持嵌套事务
type Session struct {
	db *DB

	active bool // 事务激活标志

	// pendingSets 暂存本事务的写入；pendingDels 暂存本事务的删除
	// 不变式：同一个键不会同时出现在两个集合中
	pendingSets *swiss.Map[string, string]
	pendingDels *swiss.Map[string, struct{}]
}

var _ storage.KV = (*Session)(nil)

// NewSession 为一个调用方创建事务会话，初始为 Inactive 状态
func (db *DB) NewSession() *Session {
	return &Session{
		db:          db,
		pendingSets: swiss.NewMap[string, string](16),
		pendingDels: swiss.NewMap[string, struct{}](16),
	}
}

// Begin 开启事务：Inactive -> Active，并重置事务缓冲
// 已处于激活状态时返回 ErrTxnActive，状态不变
func (s *Session) Begin() error {
	if s.active {
		return err_def.ErrTxnActive
	}
	s.pendingSets.Clear()
	s.pendingDels.Clear()
	s.active = true
	return nil
}

// Commit 提交事务：Active -> Inactive
// 把暂存的写入和删除原子地刷进数据文件和缓存，然后清空缓冲
// 无活跃事务时返回 ErrNoActiveTxn
func (s *Session) Commit() error {
	if !s.active {
		return err_def.ErrNoActiveTxn
	}

	if err := s.db.commit(s.pendingSets, s.pendingDels); err != nil {
		return err
	}

	s.pendingSets.Clear()
	s.pendingDels.Clear()
	s.active = false
	return nil
}

// Abort 放弃事务：Active -> Inactive
// 丢弃全部暂存内容，不做任何I/O，不取任何锁
// 无活跃事务时返回 ErrNoActiveTxn
func (s *Session) Abort() error {
	if !s.active {
		return err_def.ErrNoActiveTxn
	}
	s.pendingSets.Clear()
	s.pendingDels.Clear()
	s.active = false
	return nil
}

// Get 读取键对应的值
// 查询顺序：本事务暂存的删除（读己之删）-> 暂存的写入（读己之写）->
// 共享缓存 -> 数据文件；命中暂存内容时不触碰任何共享状态
// 返回三态结果：err 区分"无活跃事务"，found 区分"不存在"与"空值"
func (s *Session) Get(key string) (string, bool, error) {
	if !s.active {
		return "", false, err_def.ErrNoActiveTxn
	}
	if err := filestore.ValidateKey(key); err != nil {
		return "", false, err
	}

	if _, ok := s.pendingDels.Get(key); ok {
		return "", false, nil
	}
	if value, ok := s.pendingSets.Get(key); ok {
		return value, true, nil
	}

	return s.db.load(key)
}

// Set 暂存一次写入，返回写入前的旧值
// 旧值通过完整读路径计算；写入本身只落进本事务的缓冲，
// 不取锁也不触碰共享状态（缓冲为调用方独占）
func (s *Session) Set(key, value string) (string, bool, error) {
	if !s.active {
		return "", false, err_def.ErrNoActiveTxn
	}
	if err := filestore.ValidateKey(key); err != nil {
		return "", false, err
	}
	if err := filestore.ValidateValue(value); err != nil {
		return "", false, err
	}

	prev, found, err := s.Get(key)
	if err != nil {
		return "", false, err
	}

	s.pendingSets.Put(key, value)
	s.pendingDels.Delete(key) // 维持两个暂存集合互斥的不变式
	return prev, found, nil
}

// Del 暂存一次删除，返回删除前的旧值
func (s *Session) Del(key string) (string, bool, error) {
	if !s.active {
		return "", false, err_def.ErrNoActiveTxn
	}
	if err := filestore.ValidateKey(key); err != nil {
		return "", false, err
	}

	prev, found, err := s.Get(key)
	if err != nil {
		return "", false, err
	}

	s.pendingSets.Delete(key)
	s.pendingDels.Put(key, struct{}{})
	return prev, found, nil
}

// Active 返回事务是否处于激活状态
func (s *Session) Active() bool {
	return s.active
}

// DumpPending 导出当前事务暂存的写入和删除
// 调试接口，不属于事务契约
func (s *Session) DumpPending() (sets map[string]string, dels []string) {
	sets = make(map[string]string, s.pendingSets.Count())
	s.pendingSets.Iter(func(key string, value string) bool {
		sets[key] = value
		return false
	})

	dels = make([]string, 0, s.pendingDels.Count())
	s.pendingDels.Iter(func(key string, _ struct{}) bool {
		dels = append(dels, key)
		return false
	})
	sort.Strings(dels)

	return sets, dels
}
