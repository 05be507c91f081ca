package util

import (
	"crypto/rand"
	"encoding/binary"
	"math/bits"
	"sync"
	"time"
)

// SecureRandSource 是一个用加密熵播种的 math/rand Source
// 内部使用 PCG 状态推进，避免多个工作协程拿到相同的种子
type SecureRandSource struct {
	lock  sync.Mutex
	state uint64
}

// NewSecureRandSource 创建并播种一个新的随机源
// 种子由加密随机字节和纳秒时间戳混合而成
func NewSecureRandSource() (*SecureRandSource, error) {
	entropy := make([]byte, 8)
	if _, err := rand.Read(entropy); err != nil {
		return nil, err
	}

	seed := binary.LittleEndian.Uint64(entropy)
	seed ^= uint64(time.Now().UnixNano())
	seed = bits.RotateLeft64(seed, 17)

	return &SecureRandSource{state: seed}, nil
}

// Seed 重新播种
func (s *SecureRandSource) Seed(seed int64) {
	s.lock.Lock()
	s.state = uint64(seed)
	s.lock.Unlock()
}

// Int63 生成下一个非负随机数
func (s *SecureRandSource) Int63() int64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	// PCG 状态推进
	old := s.state
	s.state = old*6364136223846793005 + 1442695040888963407

	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	rot := uint32(old >> 59)

	return int64((xorshifted >> rot) | (xorshifted << ((-rot) & 31)))
}

// Uint64 生成一个64位随机数
func (s *SecureRandSource) Uint64() uint64 {
	return uint64(s.Int63())>>31 | uint64(s.Int63())<<32
}
