// Package notify is the sink for human-readable status messages. The
// default sink logs; the API server additionally exposes a ring of recent
// notifications so a client can render them.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Color tags a notification for display.
type Color string

const (
	ColorGray     Color = "gray"
	ColorRed      Color = "red"
	ColorGreen    Color = "green"
	ColorBlue     Color = "blue"
	ColorGold     Color = "gold"
	ColorPurple   Color = "purple"
	ColorBrown    Color = "brown"
	ColorDarkGray Color = "dark-gray"
)

// Notification is one human-readable status message.
type Notification struct {
	Message     string    `json:"message"`
	Color       Color     `json:"color"`
	Dismissable bool      `json:"dismissable"`
	Icon        string    `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

const ringSize = 100

// Log is a Notifier that records the most recent notifications and mirrors
// each one to slog.
type Log struct {
	mu     sync.Mutex
	recent []Notification
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Notify(n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	slog.Info("Notification", "color", string(n.Color), "message", n.Message)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.recent = append(l.recent, n)
	if len(l.recent) > ringSize {
		l.recent = l.recent[len(l.recent)-ringSize:]
	}
}

// Recent returns a copy of the retained notifications, oldest first.
func (l *Log) Recent() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Notification, len(l.recent))
	copy(out, l.recent)
	return out
}
