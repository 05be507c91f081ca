// Package err_def 定义了FlatKV系统中使用的所有错误类型
package err_def

import (
	"errors" // 标准错误包
)

// 系统中使用的错误常量定义
var (
	ErrKeyNotFound   = errors.New("key not found")               // 键不存在错误
	ErrNoActiveTxn   = errors.New("no active transaction")       // 无活跃事务错误
	ErrTxnActive     = errors.New("transaction already active")  // 事务已激活错误
	ErrEmptyKey      = errors.New("empty key")                   // 空键错误
	ErrInvalidKey    = errors.New("key contains invalid char")   // 键包含非法字符错误
	ErrInvalidValue  = errors.New("value contains invalid char") // 值包含非法字符错误
	ErrKeyTooLarge   = errors.New("key too large")               // 键过大错误
	ErrValueTooLarge = errors.New("value too large")             // 值过大错误
	ErrReadFailed    = errors.New("read failed")                 // 读取失败错误
	ErrWriteFailed   = errors.New("write failed")                // 写入失败错误
	ErrDBClosed      = errors.New("database is closed")          // 数据库已关闭错误
)
