package service

import (
	"sync"
	"time"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

const (
	defaultMaxVisibleToasts = 3
	defaultToastDismissTime = 5 * time.Second
)

type Toast struct {
	ID        string                   `json:"id"`
	Event     domain.AvailabilityEvent `json:"event"`
	ShownAt   time.Time                `json:"shownAt"`
	ExpiresAt time.Time                `json:"expiresAt"`
}

type ToasterConfig struct {
	MaxVisible   int
	DismissAfter time.Duration
	Preferences  domain.NotificationPreferences
	Now          func() time.Time
}

// Toaster is the presentation model of the notification popups. Each toast is
// dismissed automatically after DismissAfter unless dismissed earlier.
type Toaster struct {
	mu          sync.Mutex
	toasts      []*activeToast
	maxVisible  int
	dismiss     time.Duration
	prefs       domain.NotificationPreferences
	now         func() time.Time
	closed      bool
	unsubscribe func()
}

type activeToast struct {
	Toast
	timer *time.Timer
}

func NewToaster(sink *NotificationSink, cfg ToasterConfig) *Toaster {
	if cfg.MaxVisible <= 0 {
		cfg.MaxVisible = defaultMaxVisibleToasts
	}
	if cfg.DismissAfter <= 0 {
		cfg.DismissAfter = defaultToastDismissTime
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	t := &Toaster{
		maxVisible: cfg.MaxVisible,
		dismiss:    cfg.DismissAfter,
		prefs:      cfg.Preferences,
		now:        cfg.Now,
	}
	t.unsubscribe = sink.Subscribe(Subscription{
		Types:    domain.AllEventTypes(),
		Callback: t.show,
	})
	return t
}

func (t *Toaster) show(e domain.AvailabilityEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || !t.prefs.Allows(e) {
		return
	}

	now := t.now()
	toast := &activeToast{Toast: Toast{
		ID:        e.ID,
		Event:     e,
		ShownAt:   now,
		ExpiresAt: now.Add(t.dismiss),
	}}
	id := e.ID
	toast.timer = time.AfterFunc(t.dismiss, func() { t.Dismiss(id) })

	t.toasts = append([]*activeToast{toast}, t.toasts...)

	// a couple of extra toasts stay queued behind the visible ones
	if limit := t.maxVisible + 2; len(t.toasts) > limit {
		for _, dropped := range t.toasts[limit:] {
			dropped.timer.Stop()
		}
		t.toasts = t.toasts[:limit]
	}
}

// Dismiss removes a toast. It reports whether the toast was still shown.
func (t *Toaster) Dismiss(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, toast := range t.toasts {
		if toast.ID == id {
			toast.timer.Stop()
			t.toasts = append(t.toasts[:i], t.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// Visible returns at most MaxVisible toasts, newest first.
func (t *Toaster) Visible() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := min(len(t.toasts), t.maxVisible)
	out := make([]Toast, 0, n)
	for _, toast := range t.toasts[:n] {
		out = append(out, toast.Toast)
	}
	return out
}

func (t *Toaster) Preferences() domain.NotificationPreferences {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prefs
}

func (t *Toaster) SetPreferences(p domain.NotificationPreferences) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefs = p
}

func (t *Toaster) Close() {
	t.unsubscribe()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for _, toast := range t.toasts {
		toast.timer.Stop()
	}
	t.toasts = nil
}
