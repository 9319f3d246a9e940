// Package keypool manages a pool of Gemini API keys, spreading request load
// across keys, pinning long-running callers to a stable key, and taking keys
// out of service for a cooldown window after repeated errors.
package keypool

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/calebmills/argus/internal/common"
)

const (
	// DefaultUsageCeiling is the per-slot request count above which the
	// rotation cursor moves on to the next key.
	DefaultUsageCeiling = 50

	// errorThreshold is the consecutive error count that blocks a key.
	errorThreshold = 3

	// blockWindow is how long a blocked key stays out of service.
	blockWindow = 10 * time.Minute

	// callerWeight is how heavily a sticky caller counts against a slot
	// when picking the least loaded key for a new caller.
	callerWeight = 10
)

// ErrNoCredentials is returned when the pool holds no keys.
var ErrNoCredentials = errors.New("keypool: no credentials configured")

// slot tracks one API key and its usage counters.
type slot struct {
	index        int
	secret       string
	requests     int
	errors       int
	blocked      bool
	blockedUntil time.Time
	lastUsed     time.Time
	callers      map[string]struct{}
}

// loadScore weighs sticky callers against raw request count.
func (s *slot) loadScore() int {
	return len(s.callers)*callerWeight + s.requests
}

// Manager is a thread-safe rotating key pool. All state transitions happen
// inside method calls under one mutex; there is no background sweeper, so
// expired blocks are lifted lazily the next time a slot is inspected.
type Manager struct {
	mu       sync.Mutex
	slots    []*slot
	cursor   int
	bindings map[string]int // caller name -> slot index
	ceiling  int
	now      func() time.Time
	logger   *common.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithUsageCeiling overrides the per-slot rotation ceiling.
func WithUsageCeiling(ceiling int) Option {
	return func(m *Manager) {
		if ceiling > 0 {
			m.ceiling = ceiling
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a Manager for the given secrets, in slot order.
// An empty secret list is allowed; acquisition then fails with
// ErrNoCredentials until the process is restarted with keys configured.
func New(secrets []string, opts ...Option) *Manager {
	m := &Manager{
		slots:    make([]*slot, 0, len(secrets)),
		bindings: make(map[string]int),
		ceiling:  DefaultUsageCeiling,
		now:      time.Now,
		logger:   common.NewSilentLogger(),
	}

	for i, secret := range secrets {
		m.slots = append(m.slots, &slot{
			index:   i,
			secret:  secret,
			callers: make(map[string]struct{}),
		})
	}

	for _, opt := range opts {
		opt(m)
	}

	m.logger.Info().Int("keys", len(m.slots)).Msg("Key pool initialized")

	return m
}

// Size returns the number of keys in the pool.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// Acquire returns the key at the rotation cursor, advancing past blocked or
// saturated slots. The cursor is sticky: it stays on the same slot until that
// slot's request count passes the ceiling or the slot gets blocked.
func (m *Manager) Acquire() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquireLocked()
}

// acquireLocked implements rotation. Callers must hold m.mu.
func (m *Manager) acquireLocked() (string, error) {
	if len(m.slots) == 0 {
		return "", ErrNoCredentials
	}

	now := m.now()
	attempts := 0
	for attempts < len(m.slots) {
		s := m.slots[m.cursor]

		if s.blocked {
			if now.Before(s.blockedUntil) {
				m.rotateLocked()
				attempts++
				continue
			}
			// Cooldown elapsed: restore the slot in place and give it
			// another chance this same pass.
			s.blocked = false
			s.blockedUntil = time.Time{}
			s.errors = 0
			m.logger.Info().Int("slot", s.index).Msg("Key cooldown elapsed, slot restored")
		}

		if s.requests > m.ceiling {
			m.rotateLocked()
			attempts++
			continue
		}

		s.requests++
		s.lastUsed = now
		return s.secret, nil
	}

	// Every slot is blocked or saturated. Hand back the first key rather
	// than failing, so callers still get something to try.
	return m.slots[0].secret, nil
}

// AcquireFor returns a key for a named caller, keeping the caller pinned to
// one slot across calls. Pinned callers bypass the usage ceiling so that a
// multi-step conversation keeps a stable key. An empty caller name falls back
// to plain rotation.
func (m *Manager) AcquireFor(caller string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if caller == "" {
		return m.acquireLocked()
	}
	if len(m.slots) == 0 {
		return "", ErrNoCredentials
	}

	now := m.now()

	if idx, ok := m.bindings[caller]; ok {
		s := m.slots[idx]
		if s.blocked && !now.Before(s.blockedUntil) {
			s.blocked = false
			s.blockedUntil = time.Time{}
			s.errors = 0
			m.logger.Info().Int("slot", s.index).Msg("Key cooldown elapsed, slot restored")
		}
		if !s.blocked {
			s.requests++
			s.lastUsed = now
			return s.secret, nil
		}
		// Pinned slot is still cooling down: drop the pin and reassign.
		m.unbindLocked(caller)
	}

	if s := m.leastLoadedLocked(); s != nil {
		m.bindings[caller] = s.index
		s.callers[caller] = struct{}{}
		s.requests++
		s.lastUsed = now
		m.logger.Info().Str("caller", caller).Int("slot", s.index).Msg("Caller pinned to key slot")
		return s.secret, nil
	}

	// Every slot is blocked: hand out whatever rotation finds, unpinned.
	return m.acquireLocked()
}

// leastLoadedLocked returns the unblocked slot with the lowest load score,
// or nil when every slot is blocked. Ties go to the lowest index.
func (m *Manager) leastLoadedLocked() *slot {
	var best *slot
	bestScore := 0
	for _, s := range m.slots {
		if s.blocked {
			continue
		}
		score := s.loadScore()
		if best == nil || score < bestScore {
			best = s
			bestScore = score
		}
	}
	return best
}

// ReportError records a failed call against the caller's pinned slot, or the
// cursor slot for unpinned callers. Hitting the error threshold blocks the
// slot for the cooldown window; a pinned caller additionally loses its pin,
// while the unpinned path advances the cursor instead.
func (m *Manager) ReportError(message, caller string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.slots) == 0 {
		return
	}

	idx, bound := m.bindings[caller]
	if !bound {
		idx = m.cursor
	}
	s := m.slots[idx]
	s.errors++

	m.logger.Warn().
		Int("slot", s.index).
		Int("errors", s.errors).
		Str("caller", caller).
		Str("reason", message).
		Msg("Key error reported")

	if s.errors < errorThreshold {
		return
	}

	s.blocked = true
	s.blockedUntil = m.now().Add(blockWindow)
	m.logger.Error().
		Int("slot", s.index).
		Time("blocked_until", s.blockedUntil).
		Msg("Key blocked after repeated errors")

	if bound {
		m.unbindLocked(caller)
	} else {
		m.rotateLocked()
	}
}

// ReportSuccess clears the error streak on the caller's pinned slot, or the
// cursor slot for unpinned callers. It never lifts an active block; only the
// cooldown window does that.
func (m *Manager) ReportSuccess(caller string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.slots) == 0 {
		return
	}

	idx, bound := m.bindings[caller]
	if !bound {
		idx = m.cursor
	}
	m.slots[idx].errors = 0
}

// ForceRotate advances the rotation cursor to the next slot, resetting the
// outgoing slot's request count.
func (m *Manager) ForceRotate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.slots) == 0 {
		return
	}
	m.rotateLocked()
}

// rotateLocked moves the cursor to the next slot. The outgoing slot's request
// count resets so it starts a fresh ceiling budget when the cursor returns.
// Callers must hold m.mu.
func (m *Manager) rotateLocked() {
	out := m.slots[m.cursor]
	out.requests = 0
	m.cursor = (m.cursor + 1) % len(m.slots)
	m.logger.Info().Int("from", out.index).Int("to", m.cursor).Msg("Key cursor rotated")
}

// ResetAll clears request counts, error counts, and blocks on every slot.
// Pins and the cursor position are left alone.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.slots {
		s.requests = 0
		s.errors = 0
		s.blocked = false
		s.blockedUntil = time.Time{}
	}
	m.logger.Info().Int("keys", len(m.slots)).Msg("Key pool counters reset")
}

// Status is a point-in-time view of the pool.
type Status struct {
	TotalKeys int            `json:"total_keys"`
	Cursor    int            `json:"cursor"`
	Slots     []SlotStatus   `json:"slots"`
	Bindings  map[string]int `json:"bindings"`
}

// SlotStatus reports one key slot's counters. The key material itself is
// never exposed.
type SlotStatus struct {
	Index        int       `json:"index"`
	Requests     int       `json:"requests"`
	Errors       int       `json:"errors"`
	Blocked      bool      `json:"blocked"`
	BlockedUntil time.Time `json:"blocked_until"`
	LoadScore    int       `json:"load_score"`
	Callers      []string  `json:"callers,omitempty"`
	LastUsed     time.Time `json:"last_used"`
}

// Snapshot returns the current pool state. Safe on an empty pool.
func (m *Manager) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{
		TotalKeys: len(m.slots),
		Cursor:    m.cursor,
		Slots:     make([]SlotStatus, 0, len(m.slots)),
		Bindings:  make(map[string]int, len(m.bindings)),
	}

	for _, s := range m.slots {
		callers := make([]string, 0, len(s.callers))
		for caller := range s.callers {
			callers = append(callers, caller)
		}
		sort.Strings(callers)

		status.Slots = append(status.Slots, SlotStatus{
			Index:        s.index,
			Requests:     s.requests,
			Errors:       s.errors,
			Blocked:      s.blocked,
			BlockedUntil: s.blockedUntil,
			LoadScore:    s.loadScore(),
			Callers:      callers,
			LastUsed:     s.lastUsed,
		})
	}

	for caller, idx := range m.bindings {
		status.Bindings[caller] = idx
	}

	return status
}

// unbindLocked removes a caller's pin. Callers must hold m.mu.
func (m *Manager) unbindLocked(caller string) {
	idx, ok := m.bindings[caller]
	if !ok {
		return
	}
	delete(m.bindings, caller)
	delete(m.slots[idx].callers, caller)
	m.logger.Debug().Str("caller", caller).Int("slot", idx).Msg("Caller unpinned from key slot")
}
