// Package notify delivers user-facing notifications.
package notify

import (
	"io"
	"log"
	"sync"

	"where-money-moves/internal/domain"
	"where-money-moves/internal/observability"
)

// Notifier receives user-facing notifications. Implementations must not block.
type Notifier interface {
	Notify(n domain.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n domain.Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n domain.Notification) {
	f(n)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a notifier logging to logger.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogNotifier{logger: logger}
}

// Notify logs n. Destructive notifications are prefixed with ERROR.
func (l *LogNotifier) Notify(n domain.Notification) {
	observability.RecordNotification(string(n.Severity))
	if n.Severity == domain.SeverityDestructive {
		l.logger.Printf("ERROR: %s: %s", n.Title, n.Description)
		return
	}
	l.logger.Printf("%s: %s", n.Title, n.Description)
}

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

// Notify delivers n to every notifier.
func (m Multi) Notify(n domain.Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}

// DefaultRecorderSize is the history kept by NewRecorder(0).
const DefaultRecorderSize = 100

// Recorder keeps the most recent notifications in memory.
type Recorder struct {
	mu    sync.RWMutex
	limit int
	items []domain.Notification
}

// NewRecorder creates a recorder keeping the last limit notifications.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultRecorderSize
	}
	return &Recorder{limit: limit}
}

// Notify appends n, dropping the oldest entry when full.
func (r *Recorder) Notify(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, n)
	if len(r.items) > r.limit {
		r.items = append(r.items[:0:0], r.items[len(r.items)-r.limit:]...)
	}
}

// All returns recorded notifications, oldest first.
func (r *Recorder) All() []domain.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Titles returns the titles of recorded notifications, oldest first.
func (r *Recorder) Titles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.items))
	for i, n := range r.items {
		out[i] = n.Title
	}
	return out
}

// Len returns the number of recorded notifications.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = Multi(nil)
	_ Notifier = (*Recorder)(nil)
	_ Notifier = NotifierFunc(nil)
)
