// internal/solo/manager.go
//
// Capacity-bounded solo session manager: at most N concurrent runs, a FIFO
// waiting queue with position reporting, idle eviction on a background
// sweep, and promotion of the queue head whenever a slot frees up.

package solo

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/rdren0/literate-waddle/internal/trivia"
)

const (
	DefaultMaxSessions = 10
	DefaultIdleTimeout = 2 * time.Hour
	DefaultSweepEvery  = 5 * time.Minute
)

// Manager owns all live solo sessions. Safe for concurrent use.
type Manager struct {
	bank        *trivia.Bank
	maxSessions int
	idleTimeout time.Duration
	sweepEvery  time.Duration
	onPromote   func(userID string)

	mu       sync.Mutex
	sessions map[string]*Session
	queue    []string
}

// NewManager builds a manager. onPromote is invoked (outside the lock)
// with the id of each queued player promoted into a freed slot; nil is
// allowed.
func NewManager(bank *trivia.Bank, maxSessions int, idleTimeout, sweepEvery time.Duration, onPromote func(userID string)) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if sweepEvery <= 0 {
		sweepEvery = DefaultSweepEvery
	}
	return &Manager{
		bank:        bank,
		maxSessions: maxSessions,
		idleTimeout: idleTimeout,
		sweepEvery:  sweepEvery,
		onPromote:   onPromote,
		sessions:    make(map[string]*Session),
	}
}

// SetOnPromote installs the promotion callback after construction. Needed
// because the callback usually lives on the dispatcher, which itself takes
// the manager at construction.
func (m *Manager) SetOnPromote(fn func(userID string)) {
	m.mu.Lock()
	m.onPromote = fn
	m.mu.Unlock()
}

// StartStatus describes the result of a start request.
type StartStatus struct {
	Session  *Session // non-nil when a run is live for the caller
	Position int      // 1-based queue position when Session is nil
}

// Start begins a solo run for userID. A caller with a run already live is
// rejected with ErrAlreadyActive. At capacity the caller is queued FIFO;
// re-asking while queued just reports the position.
func (m *Manager) Start(userID string) (StartStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[userID]; ok {
		return StartStatus{}, ErrAlreadyActive
	}
	if pos := lo.IndexOf(m.queue, userID); pos >= 0 {
		return StartStatus{Position: pos + 1}, nil
	}
	if len(m.sessions) >= m.maxSessions {
		m.queue = append(m.queue, userID)
		log.Debug().Str("user", userID).Int("position", len(m.queue)).Msg("solo queue full, caller queued")
		return StartStatus{Position: len(m.queue)}, nil
	}

	s := NewSession(m.bank, userID)
	m.sessions[userID] = s
	return StartStatus{Session: s}, nil
}

// Get returns the caller's live session, if any.
func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Submit forwards an answer to the caller's session, releasing the slot
// when the run completes.
func (m *Manager) Submit(userID, text string) (*Result, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNoSession
	}
	res, err := s.Submit(text)
	var promoted []string
	if err == nil && res.Done {
		delete(m.sessions, userID)
		promoted = m.promoteLocked()
	}
	m.mu.Unlock()

	m.notify(promoted)
	return res, err
}

// End abandons the caller's run, freeing its slot (or removing the caller
// from the queue). Reports whether anything was removed.
func (m *Manager) End(userID string) bool {
	m.mu.Lock()
	var promoted []string
	_, had := m.sessions[userID]
	if had {
		delete(m.sessions, userID)
		promoted = m.promoteLocked()
	} else if pos := lo.IndexOf(m.queue, userID); pos >= 0 {
		m.queue = append(m.queue[:pos], m.queue[pos+1:]...)
		had = true
	}
	m.mu.Unlock()

	m.notify(promoted)
	return had
}

// ActiveCount returns the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// QueueLength returns the number of waiting callers.
func (m *Manager) QueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Run sweeps idle sessions every sweepEvery until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(time.Now())
		}
	}
}

// Sweep evicts sessions idle past the timeout and promotes queued callers
// into the freed slots.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.Lock()
	evicted := 0
	for id, s := range m.sessions {
		if s.idle(m.idleTimeout, now) {
			delete(m.sessions, id)
			evicted++
			log.Info().Str("user", id).Msg("solo session evicted for inactivity")
		}
	}
	var promoted []string
	if evicted > 0 {
		promoted = m.promoteLocked()
	}
	m.mu.Unlock()

	m.notify(promoted)
	return evicted
}

// promoteLocked moves queue heads into free slots. Caller holds mu.
func (m *Manager) promoteLocked() []string {
	var promoted []string
	for len(m.queue) > 0 && len(m.sessions) < m.maxSessions {
		id := m.queue[0]
		m.queue = m.queue[1:]
		m.sessions[id] = NewSession(m.bank, id)
		promoted = append(promoted, id)
	}
	return promoted
}

func (m *Manager) notify(promoted []string) {
	if len(promoted) == 0 {
		return
	}
	m.mu.Lock()
	fn := m.onPromote
	m.mu.Unlock()
	if fn == nil {
		return
	}
	for _, id := range promoted {
		fn(id)
	}
}
