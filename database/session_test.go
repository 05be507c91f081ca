package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlatKV/err_def"
	"FlatKV/storage"
	"FlatKV/storage/filestore"
)

// newMemDB 构造一个注入内存存储的引擎，给状态机测试用
func newMemDB(t *testing.T, options ...storage.Option) (*DB, *filestore.MemStore) {
	t.Helper()
	ms := filestore.NewMemStore()
	opts := append([]storage.Option{
		storage.WithMemCacheSize(8),
		storage.WithOpenBloomFilter(false),
	}, options...)
	db, err := OpenWithStore(ms, opts...)
	require.NoError(t, err)
	return db, ms
}

func TestOpsWithoutBegin(t *testing.T) {
	db, _ := newMemDB(t)
	s := db.NewSession()

	// 未开启事务时所有读写操作都返回明确的"无活跃事务"信号，而不是空结果
	_, _, err := s.Get("x")
	assert.ErrorIs(t, err, err_def.ErrNoActiveTxn)

	_, _, err = s.Set("x", "1")
	assert.ErrorIs(t, err, err_def.ErrNoActiveTxn)

	_, _, err = s.Del("x")
	assert.ErrorIs(t, err, err_def.ErrNoActiveTxn)
}

func TestBeginTwice(t *testing.T) {
	db, _ := newMemDB(t)
	s := db.NewSession()

	require.NoError(t, s.Begin())
	assert.ErrorIs(t, s.Begin(), err_def.ErrTxnActive)
	// 重复 Begin 失败后事务仍然是激活的
	assert.True(t, s.Active())
}

func TestCommitAbortWithoutBegin(t *testing.T) {
	db, _ := newMemDB(t)
	s := db.NewSession()

	assert.ErrorIs(t, s.Commit(), err_def.ErrNoActiveTxn)
	assert.ErrorIs(t, s.Abort(), err_def.ErrNoActiveTxn)
}

func TestStateMachineCycle(t *testing.T) {
	db, _ := newMemDB(t)
	s := db.NewSession()

	require.NoError(t, s.Begin())
	assert.True(t, s.Active())
	require.NoError(t, s.Commit())
	assert.False(t, s.Active())

	// 提交后可以再次开启
	require.NoError(t, s.Begin())
	require.NoError(t, s.Abort())
	assert.False(t, s.Active())
	require.NoError(t, s.Begin())
}

func TestPendingSetsAndDeletesAreExclusive(t *testing.T) {
	db, _ := newMemDB(t)
	s := db.NewSession()
	require.NoError(t, s.Begin())

	_, _, err := s.Set("k", "1")
	require.NoError(t, err)
	sets, dels := s.DumpPending()
	assert.Equal(t, map[string]string{"k": "1"}, sets)
	assert.Empty(t, dels)

	// 暂存删除会把键从暂存写入表中移除
	_, _, err = s.Del("k")
	require.NoError(t, err)
	sets, dels = s.DumpPending()
	assert.Empty(t, sets)
	assert.Equal(t, []string{"k"}, dels)

	// 再次暂存写入会把键从暂存删除集中移除
	_, _, err = s.Set("k", "2")
	require.NoError(t, err)
	sets, dels = s.DumpPending()
	assert.Equal(t, map[string]string{"k": "2"}, sets)
	assert.Empty(t, dels)
}

func TestAbortClearsPending(t *testing.T) {
	db, _ := newMemDB(t)
	s := db.NewSession()
	require.NoError(t, s.Begin())

	_, _, err := s.Set("k", "1")
	require.NoError(t, err)
	_, _, err = s.Del("other")
	require.NoError(t, err)

	require.NoError(t, s.Abort())

	require.NoError(t, s.Begin())
	sets, dels := s.DumpPending()
	assert.Empty(t, sets)
	assert.Empty(t, dels)
}

func TestSessionValidation(t *testing.T) {
	db, _ := newMemDB(t)
	s := db.NewSession()
	require.NoError(t, s.Begin())

	_, _, err := s.Get("")
	assert.ErrorIs(t, err, err_def.ErrEmptyKey)

	_, _, err = s.Set("a=b", "1")
	assert.ErrorIs(t, err, err_def.ErrInvalidKey)

	_, _, err = s.Set("a", "1\n2")
	assert.ErrorIs(t, err, err_def.ErrInvalidValue)

	_, _, err = s.Del("a=b")
	assert.ErrorIs(t, err, err_def.ErrInvalidKey)
}

func TestOpsAfterClose(t *testing.T) {
	db, _ := newMemDB(t)
	s := db.NewSession()
	require.NoError(t, s.Begin())

	require.NoError(t, db.Close())
	assert.ErrorIs(t, db.Close(), err_def.ErrDBClosed)

	_, _, err := s.Get("k")
	assert.ErrorIs(t, err, err_def.ErrDBClosed)
	assert.ErrorIs(t, s.Commit(), err_def.ErrDBClosed)
}
