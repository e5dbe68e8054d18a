// Package clientstate 描述浏览器本地存储中的客户端状态：身份、任务、队伍与彩蛋记录。
// 这些数据以浏览器为准，服务端不做同步。
package clientstate

import (
	"errors"
	"sort"
	"sync"
)

// 本地存储键
const (
	KeyUserID     = "jinxi-user-id"
	KeyUserName   = "jinxi-user-name"
	KeyCheckin    = "jinxi-checkin"
	KeyTasks      = "jinxi-tasks"
	KeyTeam       = "jinxi-team"
	KeyGameData   = "jinxi-game-data"
	KeyEasterEggs = "jinxi-easter-eggs"
)

// ErrQuotaExceeded 写入超过存储配额
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Storage 是本地存储的抽象，值均为字符串。
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string)
}

// MemoryStorage 是 Storage 的内存实现，可选字节配额。
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
	quota int
	used  int
}

// NewMemoryStorage 创建内存存储，quota<=0 表示不限制。
func NewMemoryStorage(quota int) *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string), quota: quota}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	return value, ok
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.used - entrySize(key, m.items[key], m.has(key)) + entrySize(key, value, true)
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}
	m.items[key] = value
	m.used = used
	return nil
}

func (m *MemoryStorage) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.has(key) {
		m.used -= entrySize(key, m.items[key], true)
		delete(m.items, key)
	}
}

// Keys 返回已存储的键，按字典序
func (m *MemoryStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for key := range m.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (m *MemoryStorage) has(key string) bool {
	_, ok := m.items[key]
	return ok
}

func entrySize(key, value string, present bool) int {
	if !present {
		return 0
	}
	return len(key) + len(value)
}
