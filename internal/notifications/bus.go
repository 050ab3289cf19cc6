package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"quill/internal/middleware"
)

// Kind classifies a notification for presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a transient per-user event, such as the outcome of a
// delete operation.
type Notification struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

const subscriberBuffer = 16

// Max subscribers per user
const maxSubsPerUser = 12

// Bus fans notifications out to per-user subscribers. When a Notifier with a
// Redis backend is attached, Dispatch routes through Redis so every instance
// sees the event; otherwise delivery is in-process only.
type Bus struct {
	mu       sync.RWMutex
	subs     map[string]map[chan Notification]struct{}
	notifier *Notifier
}

// NewBus creates a Bus. notifier may be nil for single-instance deployments.
func NewBus(notifier *Notifier) *Bus {
	return &Bus{
		subs:     make(map[string]map[chan Notification]struct{}),
		notifier: notifier,
	}
}

// Subscribe registers a listener for a user's notifications. The returned
// cancel function must be called when the listener goes away.
func (b *Bus) Subscribe(uid string) (<-chan Notification, func()) {
	ch := make(chan Notification, subscriberBuffer)

	b.mu.Lock()
	m, ok := b.subs[uid]
	if !ok {
		m = make(map[chan Notification]struct{})
		b.subs[uid] = m
	}
	if len(m) >= maxSubsPerUser {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	m[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if m, ok := b.subs[uid]; ok {
			if _, exists := m[ch]; exists {
				delete(m, ch)
				close(ch)
			}
			if len(m) == 0 {
				delete(b.subs, uid)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Dispatch delivers a notification to all of a user's subscribers.
func (b *Bus) Dispatch(ctx context.Context, uid string, n Notification) {
	if n.Time.IsZero() {
		n.Time = time.Now().UTC()
	}
	middleware.NotificationsDispatched.WithLabelValues(string(n.Kind)).Inc()

	if b.notifier.Enabled() {
		payload, err := json.Marshal(n)
		if err != nil {
			slog.Error("marshal notification", "error", err)
			return
		}
		if err := b.notifier.PublishUser(ctx, uid, string(payload)); err != nil {
			slog.Error("publish notification", "uid", uid, "error", err)
			// Redis is down, deliver to this instance at least.
			b.deliverLocal(uid, n)
		}
		return
	}

	b.deliverLocal(uid, n)
}

// Success dispatches a success notification.
func (b *Bus) Success(ctx context.Context, uid, message string) {
	b.Dispatch(ctx, uid, Notification{Kind: KindSuccess, Message: message})
}

// Error dispatches an error notification.
func (b *Bus) Error(ctx context.Context, uid, message string) {
	b.Dispatch(ctx, uid, Notification{Kind: KindError, Message: message})
}

// deliverLocal hands the notification to in-process subscribers. Slow
// listeners are skipped rather than blocked on.
func (b *Bus) deliverLocal(uid string, n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[uid] {
		select {
		case ch <- n:
		default:
		}
	}
}

// StartWiring subscribes the Bus to the Redis notification channels and
// forwards incoming messages to matching local subscribers.
func (b *Bus) StartWiring(ctx context.Context) error {
	return b.notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
		uid := strings.TrimPrefix(channel, "notifications:user:")
		if uid == channel || uid == "" {
			slog.Warn("invalid notification channel", "channel", channel)
			return
		}
		var n Notification
		if err := json.Unmarshal([]byte(payload), &n); err != nil {
			slog.Warn("invalid notification payload", "channel", channel, "error", err)
			return
		}
		b.deliverLocal(uid, n)
	})
}

// Shutdown closes every subscriber channel.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for uid, m := range b.subs {
		for ch := range m {
			close(ch)
		}
		delete(b.subs, uid)
	}
}
