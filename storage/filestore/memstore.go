package filestore

import (
	"fmt"
	"sort"

	"FlatKV/err_def"
	"FlatKV/storage"
)

// MemStore 是 storage.FileStore 的内存实现
// 仅用于单元测试向引擎注入存储替身，并可模拟I/O故障
type MemStore struct {
	data map[string]string

	// FailReads 为 true 时所有读操作返回 ErrReadFailed，模拟文件无法打开
	FailReads bool
	// FailWrites 为 true 时所有写操作返回 ErrWriteFailed
	FailWrites bool
}

var _ storage.FileStore = (*MemStore)(nil)

// NewMemStore 创建一个空的内存存储
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

func (ms *MemStore) Get(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if ms.FailReads {
		return "", fmt.Errorf("%w: injected read failure", err_def.ErrReadFailed)
	}
	value, ok := ms.data[key]
	if !ok {
		return "", err_def.ErrKeyNotFound
	}
	return value, nil
}

func (ms *MemStore) Put(key string, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ValidateValue(value); err != nil {
		return err
	}
	if ms.FailWrites {
		return fmt.Errorf("%w: injected write failure", err_def.ErrWriteFailed)
	}
	ms.data[key] = value
	return nil
}

func (ms *MemStore) Del(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ms.FailWrites {
		return fmt.Errorf("%w: injected write failure", err_def.ErrWriteFailed)
	}
	delete(ms.data, key)
	return nil
}

func (ms *MemStore) Keys() ([]string, error) {
	if ms.FailReads {
		return nil, fmt.Errorf("%w: injected read failure", err_def.ErrReadFailed)
	}
	keys := make([]string, 0, len(ms.data))
	for key := range ms.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
