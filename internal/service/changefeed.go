package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"exam-control/pkg/redis"
)

// ── 变更广播 ──────────────────────────────────────────────
//
// 所有写操作成功后发布一条 ChangeEvent，客户端通过 GET /events（SSE）订阅，
// 收到后按 Kind 重新拉取对应资源。多实例部署时经 Redis 频道转发，
// 未配置 Redis 时退化为进程内广播。
// ─────────────────────────────────────────────────────────────

// 事件类型
const (
	EventEnvelope     = "envelope"
	EventNotification = "notification"
	EventDistribution = "distribution"
	EventSchedule     = "schedule"
	EventTeachers     = "teachers"
	EventStudents     = "students"
)

// ChangeEvent 资源变更事件
type ChangeEvent struct {
	Kind       string    `json:"kind"`
	EnvelopeID string    `json:"envelope_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	At         time.Time `json:"at"`
}

// ChangeFeed 变更广播接口
type ChangeFeed interface {
	// Publish 发布事件；失败只记录日志，不影响调用方
	Publish(ctx context.Context, ev ChangeEvent)
	// Subscribe 订阅事件流，ctx 结束后通道关闭
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}

// NewChangeFeed 根据是否配置 Redis 选择实现
func NewChangeFeed(rdb *redis.Client, channel string, logger *zap.Logger) ChangeFeed {
	if rdb == nil {
		return newMemoryFeed(logger)
	}
	return &redisFeed{rdb: rdb, channel: channel, logger: logger}
}

// ── Redis 实现 ──

type redisFeed struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

func (f *redisFeed) Publish(ctx context.Context, ev ChangeEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		f.logger.Error("序列化变更事件失败", zap.Error(err))
		return
	}
	if err := f.rdb.Publish(ctx, f.channel, payload); err != nil {
		f.logger.Warn("发布变更事件失败", zap.String("kind", ev.Kind), zap.Error(err))
	}
}

func (f *redisFeed) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	raw, closeFn, err := f.rdb.Subscribe(ctx, f.channel)
	if err != nil {
		return nil, err
	}

	out := make(chan ChangeEvent, 16)
	go func() {
		defer close(out)
		defer closeFn()
		for msg := range raw {
			var ev ChangeEvent
			if err := json.Unmarshal(msg, &ev); err != nil {
				f.logger.Warn("丢弃无法解析的变更事件", zap.Error(err))
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ── 进程内实现 ──

type memoryFeed struct {
	mu     sync.RWMutex
	subs   map[chan ChangeEvent]struct{}
	logger *zap.Logger
}

func newMemoryFeed(logger *zap.Logger) *memoryFeed {
	return &memoryFeed{subs: make(map[chan ChangeEvent]struct{}), logger: logger}
}

func (f *memoryFeed) Publish(_ context.Context, ev ChangeEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
			// 慢订阅者丢弃事件，客户端重连后会全量刷新
			f.logger.Debug("订阅者缓冲已满，丢弃变更事件", zap.String("kind", ev.Kind))
		}
	}
}

func (f *memoryFeed) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	ch := make(chan ChangeEvent, 16)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}
