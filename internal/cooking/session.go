// Package cooking owns the single oven. A Session runs one countdown at a time
// and reports each finished countdown on its Completions channel.
package cooking

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrAlreadyActive is returned by Start while another countdown is running.
var ErrAlreadyActive = errors.New("cooking session already active")

// ErrCompletionPending is returned by Start for an order whose last countdown
// finished but has not been acknowledged yet.
var ErrCompletionPending = errors.New("cooking completion not yet acknowledged")

// Indicator is the display the session keeps in sync with the countdown.
type Indicator interface {
	ShowEmpty()
	ShowCooking(remaining int)
	ShowDone()
}

// Completion is emitted once per countdown that reaches zero.
type Completion struct {
	OrderID    string
	Ticks      int
	FinishedAt time.Time
}

// State is a point-in-time view of the session.
type State struct {
	Active    bool      `json:"active"`
	OrderID   string    `json:"order_id,omitempty"`
	Remaining int       `json:"remaining"`
	Ticks     int       `json:"ticks"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// Session is the oven. All mutations go through Start, Tick and Cancel, which
// serialise on one mutex; the countdown goroutine holds no lock while it waits.
type Session struct {
	indicator Indicator
	interval  time.Duration
	logger    *slog.Logger

	mu        sync.Mutex
	active    bool
	orderID   string
	remaining int
	ticks     int
	startedAt time.Time
	gen       uint64
	stop      chan struct{}
	// finished holds orders whose completion has not been acknowledged.
	finished map[string]struct{}

	completions chan Completion
}

// NewSession creates a dormant session. With a zero interval no countdown
// goroutine is started and the caller drives the session with Tick.
func NewSession(indicator Indicator, interval time.Duration, logger *slog.Logger) *Session {
	return &Session{
		indicator:   indicator,
		interval:    interval,
		logger:      logger.With("component", "cooking_session"),
		finished:    make(map[string]struct{}),
		completions: make(chan Completion, 16),
	}
}

// Completions delivers one value per countdown that reached zero.
func (s *Session) Completions() <-chan Completion {
	return s.completions
}

// Start begins a countdown of ticks for orderID. An order cannot be started
// again until its previous completion has been acknowledged.
func (s *Session) Start(orderID string, ticks int) error {
	if ticks < 1 {
		return fmt.Errorf("cooking session needs at least one tick, got %d", ticks)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return fmt.Errorf("start cooking order %s: %w (cooking %s)", orderID, ErrAlreadyActive, s.orderID)
	}
	if _, ok := s.finished[orderID]; ok {
		return fmt.Errorf("start cooking order %s: %w", orderID, ErrCompletionPending)
	}

	s.active = true
	s.orderID = orderID
	s.remaining = ticks
	s.ticks = ticks
	s.startedAt = time.Now()
	s.gen++
	s.indicator.ShowCooking(ticks)

	if s.interval > 0 {
		s.stop = make(chan struct{})
		go s.countdown(s.gen, s.stop)
	}

	s.logger.Info("cooking started", "order_id", orderID, "ticks", ticks)
	return nil
}

// Tick advances the running countdown by one step. It reports whether the
// countdown finished on this tick.
func (s *Session) Tick() bool {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	return s.tick(gen)
}

// Cancel stops the running countdown without a completion and shows the empty
// oven. It reports whether a countdown was running.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked()
}

// CancelIfOwner cancels the countdown only when it belongs to orderID.
func (s *Session) CancelIfOwner(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.orderID != orderID {
		return false
	}
	return s.cancelLocked()
}

// Pending reports whether orderID finished cooking and the completion has not
// been acknowledged.
func (s *Session) Pending(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.finished[orderID]
	return ok
}

// Acknowledge marks the completion of orderID as handled.
func (s *Session) Acknowledge(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.finished, orderID)
}

// Reset puts the oven into the empty state. It is used at startup.
func (s *Session) Reset() {
	s.Cancel()
}

// Active reports whether a countdown is running.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return State{}
	}
	return State{
		Active:    true,
		OrderID:   s.orderID,
		Remaining: s.remaining,
		Ticks:     s.ticks,
		StartedAt: s.startedAt,
	}
}

func (s *Session) cancelLocked() bool {
	wasActive := s.active
	if wasActive {
		s.logger.Info("cooking cancelled", "order_id", s.orderID, "remaining", s.remaining)
	}
	s.active = false
	s.orderID = ""
	s.remaining = 0
	s.ticks = 0
	s.gen++
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.indicator.ShowEmpty()
	return wasActive
}

// tick decrements the countdown of generation gen. Ticks for a cancelled or
// replaced countdown are ignored.
func (s *Session) tick(gen uint64) bool {
	s.mu.Lock()
	if !s.active || gen != s.gen {
		s.mu.Unlock()
		return false
	}

	s.remaining--
	if s.remaining > 0 {
		s.indicator.ShowCooking(s.remaining)
		s.mu.Unlock()
		return false
	}

	done := Completion{OrderID: s.orderID, Ticks: s.ticks, FinishedAt: time.Now()}
	s.finished[done.OrderID] = struct{}{}
	s.active = false
	s.orderID = ""
	s.ticks = 0
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.gen++
	s.indicator.ShowDone()
	s.mu.Unlock()

	s.logger.Info("cooking finished", "order_id", done.OrderID, "ticks", done.Ticks)
	s.completions <- done
	return true
}

func (s *Session) countdown(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s.tick(gen) {
				return
			}
		}
	}
}
