// Package notify delivers local notices to the user.
//
// A Notice is a short message shown locally, optionally dismissed after a
// timeout. Notices are delivered through a Notifier; Hub fans them out to
// subscribers, LogNotifier writes them to a logger, and Recorder keeps them
// for inspection.
package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Notice is a local message for the user.
type Notice struct {
	// ID identifies the notice. New fills it in.
	ID uuid.UUID

	// Kind groups notices of the same purpose, e.g. "new-version".
	Kind string

	// Message is the text shown to the user.
	Message string

	// Timeout dismisses the notice after the given duration. Zero keeps it
	// until the user closes it.
	Timeout time.Duration
}

// New creates a notice with a fresh ID. Tab-indented continuation lines in
// message are joined, as multi-line literals commonly carry them.
func New(kind, message string, timeout time.Duration) Notice {
	return Notice{
		ID:      uuid.New(),
		Kind:    kind,
		Message: strings.ReplaceAll(message, "\n\t", ""),
		Timeout: timeout,
	}
}

// Notifier delivers notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notice) error

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, n Notice) error {
	return f(ctx, n)
}

// Observer receives notices from a Hub.
type Observer func(n Notice)

// Subscription is an active Hub subscription.
type Subscription struct {
	id  uint64
	hub *Hub
}

// Unsubscribe removes the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.hub != nil {
		s.hub.unsubscribe(s.id)
	}
}

// Hub delivers notices synchronously to every subscriber.
type Hub struct {
	mu        sync.RWMutex
	observers map[uint64]Observer
	nextID    uint64
	closed    bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{observers: make(map[uint64]Observer)}
}

// Subscribe registers an observer for all notices.
func (h *Hub) Subscribe(observer Observer) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.observers[id] = observer
	return &Subscription{id: id, hub: h}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	delete(h.observers, id)
	h.mu.Unlock()
}

// Notify implements Notifier. Notices sent after Close are dropped.
func (h *Hub) Notify(ctx context.Context, n Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return nil
	}
	observers := make([]Observer, 0, len(h.observers))
	for id := uint64(0); id < h.nextID; id++ {
		if o, ok := h.observers[id]; ok {
			observers = append(observers, o)
		}
	}
	h.mu.RUnlock()

	for _, o := range observers {
		o(n)
	}
	return nil
}

// Close drops all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.observers = make(map[uint64]Observer)
	h.mu.Unlock()
}

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a notifier writing to logger, or to the default
// logger when nil.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default().WithPrefix("notice")
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(ctx context.Context, n Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kv := []any{"kind", n.Kind, "id", n.ID}
	if n.Timeout > 0 {
		kv = append(kv, "timeout", n.Timeout)
	}
	l.logger.Info(n.Message, kv...)
	return nil
}

// Recorder keeps every notice it receives.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify implements Notifier.
func (r *Recorder) Notify(ctx context.Context, n Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
	return nil
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}
