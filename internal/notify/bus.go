// Package notify 提供页面提示（toast）的发布订阅总线。
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level 提示级别
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice 是一条待展示的提示。
type Notice struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Bus 将提示扇出给所有订阅者。订阅者缓冲区已满时丢弃该条，发布方永不阻塞。
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]chan Notice
	nextID uint64
	closed bool
	logger *zap.Logger
	now    func() time.Time
}

// NewBus 创建总线，logger 为空时不记录丢弃日志。
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[uint64]chan Notice),
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe 注册订阅者，返回只读通道与取消函数；取消函数可重复调用。
func (b *Bus) Subscribe(buffer int) (<-chan Notice, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Notice, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Publish 投递提示，返回成功送达的订阅者数量。
func (b *Bus) Publish(n Notice) int {
	if n.Level == "" {
		n.Level = LevelInfo
	}
	if n.At.IsZero() {
		n.At = b.now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for id, ch := range b.subs {
		select {
		case ch <- n:
			delivered++
		default:
			b.logger.Debug("drop notice for slow subscriber",
				zap.Uint64("subscriber", id),
				zap.String("title", n.Title),
			)
		}
	}
	return delivered
}

// Close 关闭所有订阅通道，之后的订阅立即得到已关闭的通道。
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
