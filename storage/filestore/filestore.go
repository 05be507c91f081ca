// Package filestore 实现了FlatKV的平面文件持久层
// 数据文件是纯文本，每行一条 "key=value" 记录，无文件头，无转义，
// 一行中第一个 '=' 是键和值的分隔符
// 读取和单键改写的代价都是 O(文件大小)：全文件线性扫描、全文件重写，
// 没有索引，也没有追加日志，重写过程中崩溃可能留下不一致文件（接受该限制）
package filestore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"FlatKV/err_def"
	"FlatKV/storage"
)

// FlatFile 是 storage.FileStore 的文件实现
// 结构体本身不持有文件句柄，每次操作独立打开文件，
// 并发控制完全交给上层引擎的互斥锁
type FlatFile struct {
	path string // 数据文件路径
}

var _ storage.FileStore = (*FlatFile)(nil)

// New 创建一个 FlatFile 实例
// 数据文件不存在时创建空文件，父目录一并创建
func New(path string) (*FlatFile, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory failed: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open data file failed: %w", err)
	}
	_ = f.Close()

	return &FlatFile{path: path}, nil
}

// ValidateKey 校验键的合法性
// 键不能为空，不能包含分隔符 '=' 和换行符，不能超过最大长度
func ValidateKey(key string) error {
	if len(key) == 0 {
		return err_def.ErrEmptyKey
	}
	if len(key) > storage.MaxKeySize {
		return err_def.ErrKeyTooLarge
	}
	if strings.ContainsAny(key, storage.FieldDelimiter+"\n\r") {
		return err_def.ErrInvalidKey
	}
	return nil
}

// ValidateValue 校验值的合法性
// 值不能包含换行符（会破坏行式记录格式），不能超过最大长度
// 值中允许出现 '='，解析时只认第一个分隔符
func ValidateValue(value string) error {
	if len(value) > storage.MaxValueSize {
		return err_def.ErrValueTooLarge
	}
	if strings.ContainsAny(value, "\n\r") {
		return err_def.ErrInvalidValue
	}
	return nil
}

// Get 线性扫描数据文件查找键对应的值
// 未找到返回 ErrKeyNotFound，文件无法打开时返回包装后的 ErrReadFailed
func (ff *FlatFile) Get(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}

	f, err := os.Open(ff.path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", err_def.ErrReadFailed, ff.path, err)
	}
	defer func() { _ = f.Close() }()

	prefix := key + storage.FieldDelimiter
	scanner := newLineScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, prefix) {
			return line[len(prefix):], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: scan %s: %v", err_def.ErrReadFailed, ff.path, err)
	}

	return "", err_def.ErrKeyNotFound
}

// Put 写入或改写一条记录
// 全文件读入后重写：已有记录原地替换，新键追加到文件末尾，
// 借此保证每个键至多出现一条记录
func (ff *FlatFile) Put(key string, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := ValidateValue(value); err != nil {
		return err
	}

	lines, err := ff.readLines()
	if err != nil {
		return err
	}

	record := key + storage.FieldDelimiter + value
	prefix := key + storage.FieldDelimiter
	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(line, prefix) {
			lines[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, record)
	}

	return ff.writeLines(lines)
}

// Del 删除键对应的记录
// 键不存在时不重写文件，直接返回成功
func (ff *FlatFile) Del(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	lines, err := ff.readLines()
	if err != nil {
		return err
	}

	prefix := key + storage.FieldDelimiter
	found := false
	kept := lines[:0]
	for _, line := range lines {
		if !found && strings.HasPrefix(line, prefix) {
			found = true
			continue
		}
		kept = append(kept, line)
	}
	if !found {
		// 没有可删除的记录
		return nil
	}

	return ff.writeLines(kept)
}

// Keys 列出数据文件中所有的键
// 跳过不含分隔符的畸形行
func (ff *FlatFile) Keys() ([]string, error) {
	lines, err := ff.readLines()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(lines))
	for _, line := range lines {
		if key, _, ok := strings.Cut(line, storage.FieldDelimiter); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// readLines 将整个数据文件读入内存
func (ff *FlatFile) readLines() ([]string, error) {
	f, err := os.Open(ff.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", err_def.ErrReadFailed, ff.path, err)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := newLineScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan %s: %v", err_def.ErrReadFailed, ff.path, err)
	}
	return lines, nil
}

// writeLines 将全部记录重写回数据文件
// 原地截断重写，不走临时文件，重写中途崩溃的风险由上层接受
func (ff *FlatFile) writeLines(lines []string) error {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(ff.path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", err_def.ErrWriteFailed, ff.path, err)
	}
	return nil
}

// newLineScanner 构造一个行扫描器，缓冲区放大到允许的最大记录长度
func newLineScanner(f *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64<<10), storage.MaxKeySize+storage.MaxValueSize+1)
	return scanner
}
