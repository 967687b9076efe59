// Package notify carries user-facing notifications from the workflow
// coordinators to whatever displays them. At most one notification is pending
// at a time; a newer one replaces it.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
	Warning Level = "warning"
)

type Notification struct {
	Level   Level     `json:"type"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier is implemented by anything that accepts notifications.
type Notifier interface {
	Notify(level Level, message string)
}

// Center holds the pending notification and fans it out to subscribers.
type Center struct {
	mu      sync.Mutex
	current *Notification
	subs    map[int]chan Notification
	nextID  int
	now     func() time.Time
}

func New() *Center {
	return &Center{
		subs: make(map[int]chan Notification),
		now:  time.Now,
	}
}

// Notify replaces the pending notification and publishes it. A subscriber
// that has not drained its previous notification only sees the newest one.
func (c *Center) Notify(level Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := Notification{Level: level, Message: message, At: c.now()}
	c.current = &n

	for _, ch := range c.subs {
		select {
		case ch <- n:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- n:
		default:
		}
	}
}

// Current returns the pending notification, if any.
func (c *Center) Current() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Notification{}, false
	}
	return *c.current, true
}

// Hide clears the pending notification.
func (c *Center) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

// Subscribe returns a channel receiving every later notification and a
// function that unsubscribes and closes the channel.
func (c *Center) Subscribe() (<-chan Notification, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan Notification, 1)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
}

// Log writes notifications from ch to slog until ch closes or ctx ends.
func Log(ctx context.Context, ch <-chan Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			switch n.Level {
			case Error:
				slog.Error(n.Message)
			case Warning:
				slog.Warn(n.Message)
			default:
				slog.Info(n.Message, "type", string(n.Level))
			}
		}
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(Level, string) {}
