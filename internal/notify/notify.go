// Package notify delivers transient user-facing notifications.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 15 * time.Second

// Level is the severity of a notification.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

// Notification is a message shown to the user for Duration.
type Notification struct {
	Level    Level
	Text     string
	Duration time.Duration
	At       time.Time
}

// Expired reports whether the notification should no longer be shown.
func (n Notification) Expired(now time.Time) bool {
	return now.Sub(n.At) >= n.Duration
}

// Notifier accepts notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(Notification)
}

// New builds a notification with the default duration.
func New(level Level, text string) Notification {
	return Notification{Level: level, Text: text, Duration: DefaultDuration, At: time.Now()}
}

// NewFor builds a notification shown for d.
func NewFor(level Level, text string, d time.Duration) Notification {
	return Notification{Level: level, Text: text, Duration: d, At: time.Now()}
}

// Func adapts a function to Notifier.
type Func func(Notification)

// Notify calls f(n).
func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Logger writes notifications to a slog logger.
type Logger struct {
	log *slog.Logger
}

// NewLogger creates a notifier backed by log (nil means slog.Default()).
func NewLogger(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log}
}

// Notify logs n at a level matching its severity.
func (l *Logger) Notify(n Notification) {
	lvl := slog.LevelInfo
	switch n.Level {
	case Warning:
		lvl = slog.LevelWarn
	case Error:
		lvl = slog.LevelError
	}
	l.log.Log(context.Background(), lvl, n.Text, "kind", "notification", "level", n.Level.String())
}

// Fanout delivers to several notifiers in order.
type Fanout []Notifier

// Notify forwards n to every notifier.
func (f Fanout) Notify(n Notification) {
	for _, x := range f {
		if x != nil {
			x.Notify(n)
		}
	}
}

// Relay forwards to a notifier attached after construction. Until Attach
// is called, notifications go nowhere.
type Relay struct {
	mu     sync.RWMutex
	target Notifier
}

// Attach sets the notifier that receives later notifications.
func (r *Relay) Attach(n Notifier) {
	r.mu.Lock()
	r.target = n
	r.mu.Unlock()
}

// Notify forwards n to the attached notifier.
func (r *Relay) Notify(n Notification) {
	r.mu.RLock()
	t := r.target
	r.mu.RUnlock()
	if t != nil {
		t.Notify(n)
	}
}

// Recorder keeps every notification it receives. Useful in tests and for
// non-interactive commands that print notifications at the end.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

// Notify records n.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.all = append(r.all, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.all))
	copy(out, r.all)
	return out
}

// Texts returns the recorded notification texts.
func (r *Recorder) Texts() []string {
	all := r.All()
	out := make([]string, len(all))
	for i, n := range all {
		out[i] = n.Text
	}
	return out
}

// Reset clears the recorder.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.all = nil
	r.mu.Unlock()
}

// Errorn sends an error notification.
func Errorn(n Notifier, text string) { n.Notify(New(Error, text)) }

// Infon sends an info notification.
func Infon(n Notifier, text string) { n.Notify(New(Info, text)) }
