package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/chatdeck/internal/notify"
)

// maxToasts bounds how many notifications are shown at once.
const maxToasts = 3

// toastMsg delivers a notification to the UI loop.
type toastMsg notify.Notification

// toastTickMsg prunes expired toasts.
type toastTickMsg time.Time

// channelNotifier forwards notifications from any goroutine to the UI loop.
// Sends never block; a full channel drops the notification.
type channelNotifier struct {
	ch chan notify.Notification
}

func newChannelNotifier() *channelNotifier {
	return &channelNotifier{ch: make(chan notify.Notification, 32)}
}

// Notify queues n for display.
func (c *channelNotifier) Notify(n notify.Notification) {
	select {
	case c.ch <- n:
	default:
	}
}

// wait returns a command delivering the next notification.
func (c *channelNotifier) wait() tea.Cmd {
	return func() tea.Msg {
		return toastMsg(<-c.ch)
	}
}

func toastTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// toasts holds the visible notifications, oldest first.
type toasts []notify.Notification

func (t toasts) add(n notify.Notification) toasts {
	out := append(toasts{}, t...)
	out = append(out, n)
	if len(out) > maxToasts {
		out = out[len(out)-maxToasts:]
	}
	return out
}

func (t toasts) prune(now time.Time) toasts {
	var out toasts
	for _, n := range t {
		if !n.Expired(now) {
			out = append(out, n)
		}
	}
	return out
}

func (t toasts) view(width int) string {
	if len(t) == 0 {
		return ""
	}
	lines := make([]string, 0, len(t))
	for _, n := range t {
		style, ok := toastStyles[n.Level.String()]
		if !ok {
			style = toastStyles["info"]
		}
		lines = append(lines, style.MaxWidth(width).Render(n.Text))
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, strings.Join(lines, "\n"))
}
