// Package session gives every client its own appointment store. A store
// lives from OpenSession until CloseSession, shutdown, or idle eviction.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"doctor-booking-api/internal/logger"
	"doctor-booking-api/internal/metrics"
	"doctor-booking-api/internal/seed"
	"doctor-booking-api/internal/store"
)

var ErrUnknownSession = errors.New("session: unknown or expired session")

const (
	DefaultTokenTTL    = 12 * time.Hour
	DefaultIdleTimeout = 30 * time.Minute
)

type Config struct {
	Secret       string
	TokenTTL     time.Duration
	IdleTimeout  time.Duration
	Seed         seed.Dataset
	StoreOptions []store.Option
	Logger       *logger.Logger
	Metrics      *metrics.Metrics
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Token is what OpenSession hands back to the client.
type Token struct {
	Raw       string
	SessionID string
	ExpiresAt time.Time
}

type entry struct {
	store *store.Store
	seen  time.Time
}

// Manager owns the live sessions. The sessions gauge is only written while
// mu is held.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	secret   []byte
	tokenTTL time.Duration
	idle     time.Duration
	seed     seed.Dataset
	opts     []store.Option
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewManager(cfg Config) *Manager {
	m := &Manager{
		sessions: make(map[string]*entry),
		secret:   []byte(cfg.Secret),
		tokenTTL: cfg.TokenTTL,
		idle:     cfg.IdleTimeout,
		seed:     cfg.Seed,
		opts:     cfg.StoreOptions,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		now:      cfg.Now,
	}
	if m.tokenTTL <= 0 {
		m.tokenTTL = DefaultTokenTTL
	}
	if m.idle <= 0 {
		m.idle = DefaultIdleTimeout
	}
	if m.log == nil {
		m.log = logger.Discard()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Open creates and seeds a fresh store and returns a signed handle to it.
func (m *Manager) Open() (Token, error) {
	id := uuid.NewString()
	now := m.now()
	raw, exp, err := signToken(id, m.secret, now, m.tokenTTL)
	if err != nil {
		return Token{}, err
	}

	st := store.New(m.opts...)
	st.Initialize(m.seed.Doctors, m.seed.Appointments)

	m.mu.Lock()
	m.sessions[id] = &entry{store: st, seen: now}
	m.metrics.SetSessions(len(m.sessions))
	m.mu.Unlock()

	m.log.WithSession(id).Debug("session opened")
	return Token{Raw: raw, SessionID: id, ExpiresAt: exp}, nil
}

// Resolve checks the token signature and expiry, makes sure the session is
// still alive and marks it as used.
func (m *Manager) Resolve(raw string) (string, error) {
	now := m.now()
	c, err := parseToken(raw, m.secret, now)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[c.SessionID]
	if !ok {
		return "", ErrUnknownSession
	}
	e.seen = now
	return c.SessionID, nil
}

func (m *Manager) Store(id string) (*store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return e.store, nil
}

// Close tears the session's store down. It reports whether the session
// existed.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		m.metrics.SetSessions(len(m.sessions))
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	e.store.Close()
	m.log.WithSession(id).Debug("session closed")
	return true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than the idle timeout.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idle)

	m.mu.Lock()
	var stale []*store.Store
	for id, e := range m.sessions {
		if e.seen.Before(cutoff) {
			stale = append(stale, e.store)
			delete(m.sessions, id)
		}
	}
	if len(stale) > 0 {
		m.metrics.SetSessions(len(m.sessions))
	}
	m.mu.Unlock()

	for _, st := range stale {
		st.Close()
	}
	if len(stale) > 0 {
		m.log.WithComponent("session").WithField("evicted", len(stale)).Info("idle sessions evicted")
	}
	return len(stale)
}

// Run sweeps on every interval until ctx is done, then shuts every session
// down.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.Shutdown()
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*entry)
	m.metrics.SetSessions(0)
	m.mu.Unlock()

	for _, e := range all {
		e.store.Close()
	}
}
