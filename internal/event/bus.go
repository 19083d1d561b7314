package event

import (
	"log/slog"
	"sync"
)

// DropRecorder はバッファ溢れで破棄されたイベント数を記録するインターフェース。
type DropRecorder interface {
	RecordEventDropped(eventType string)
}

// Bus はイベントを全購読者へファンアウトする。
// Publishはブロックしない。購読者のバッファが一杯の場合、そのイベントは破棄される。
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	bufferSize  int
	logger      *slog.Logger
	drops       DropRecorder
}

// NewBus はBusを生成する。bufferSizeが0以下の場合はデフォルト値16を使用する。
// dropsはnilでもよい。
func NewBus(bufferSize int, logger *slog.Logger, drops DropRecorder) *Bus {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Bus{
		subscribers: make(map[int]chan Event),
		bufferSize:  bufferSize,
		logger:      logger,
		drops:       drops,
	}
}

// Subscribe は新しい購読チャネルと購読解除関数を返す。
// 解除関数を呼ぶとチャネルはクローズされる。複数回呼んでも安全。
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.bufferSize)
	b.subscribers[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers, id)
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Publish はイベントを全購読者に送信する。
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("event dropped: subscriber buffer full",
				slog.String("event_type", string(ev.Type)),
				slog.Int("subscriber_id", id),
			)
			if b.drops != nil {
				b.drops.RecordEventDropped(string(ev.Type))
			}
		}
	}
}

// SubscriberCount は現在の購読者数を返す。
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
