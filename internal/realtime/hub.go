package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/groupvial/internal/cache"
	"github.com/groupvial/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Event 批次进度变化事件
type Event struct {
	Type         string    `json:"type"`
	BatchID      uint      `json:"batch_id"`
	Status       string    `json:"status,omitempty"`
	TargetVials  int       `json:"target_vials"`
	CurrentVials int       `json:"current_vials"`
	Percent      int       `json:"percent"`
	OrderCode    string    `json:"order_code,omitempty"`
	At           time.Time `json:"at"`
}

// Hub 批次进度推送
type Hub interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe 订阅批次事件，返回的 cancel 必须调用以释放订阅
	Subscribe(ctx context.Context, batchID uint) (<-chan Event, func(), error)
}

const subscriberBuffer = 16

// NewHub Redis 可用时跨实例推送，否则仅进程内推送
func NewHub() Hub {
	if client := cache.Client(); client != nil {
		return NewRedisHub(client)
	}
	return NewMemoryHub()
}

// MemoryHub 进程内推送
type MemoryHub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[uint]map[int]chan Event
}

// NewMemoryHub 创建进程内推送
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{subs: make(map[uint]map[int]chan Event)}
}

// Publish 推送事件；订阅方缓冲已满时丢弃该订阅方的本条事件
func (h *MemoryHub) Publish(_ context.Context, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[event.BatchID] {
		select {
		case ch <- event:
		default:
			logger.Debugw("realtime_event_dropped", "batch_id", event.BatchID, "type", event.Type)
		}
	}
	return nil
}

// Subscribe 订阅批次事件
func (h *MemoryHub) Subscribe(ctx context.Context, batchID uint) (<-chan Event, func(), error) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[batchID] == nil {
		h.subs[batchID] = make(map[int]chan Event)
	}
	h.subs[batchID][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[batchID], id)
			if len(h.subs[batchID]) == 0 {
				delete(h.subs, batchID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

// Subscribers 当前订阅数
func (h *MemoryHub) Subscribers(batchID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[batchID])
}

// RedisHub 基于 Redis Pub/Sub 的跨实例推送
type RedisHub struct {
	client *redis.Client
}

// NewRedisHub 创建 Redis 推送
func NewRedisHub(client *redis.Client) *RedisHub {
	return &RedisHub{client: client}
}

// Publish 推送事件
func (h *RedisHub) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.client.Publish(ctx, cache.Key(cache.BatchChannel(event.BatchID)), payload).Err()
}

// Subscribe 订阅批次事件
func (h *RedisHub) Subscribe(ctx context.Context, batchID uint) (<-chan Event, func(), error) {
	pubsub := h.client.Subscribe(ctx, cache.Key(cache.BatchChannel(batchID)))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, func() {}, err
	}

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	go func() {
		defer close(out)
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logger.Warnw("realtime_event_decode_failed", "batch_id", batchID, "error", err)
					continue
				}
				select {
				case out <- event:
				default:
					logger.Debugw("realtime_event_dropped", "batch_id", batchID, "type", event.Type)
				}
			}
		}
	}()
	return out, cancel, nil
}
