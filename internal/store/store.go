// Package store is the in-memory source of truth for one session: the
// read-only doctor directory and the mutable appointment list.
package store

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"doctor-booking-api/internal/model"
)

var (
	// ErrNotInitialized means the store was queried before Initialize or
	// after Close. It is a wiring bug, not a missing record.
	ErrNotInitialized    = errors.New("store: not initialized")
	ErrNotFound          = errors.New("store: not found")
	ErrInvalidTransition = errors.New("store: status transition not allowed")
)

type Option func(*Store)

// WithIDGenerator replaces uuid.NewString as the appointment id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithTransitionPolicy(p TransitionPolicy) Option {
	return func(s *Store) { s.allowed = p }
}

type Store struct {
	mu    sync.RWMutex
	ready bool
	done  bool

	doctors   []model.Doctor
	doctorIdx map[string]int

	appointments []model.Appointment

	newID   func() string
	allowed TransitionPolicy

	subs    map[int]chan Change
	nextSub int
}

func New(opts ...Option) *Store {
	s := &Store{
		newID:   uuid.NewString,
		allowed: AnyTransition,
		subs:    make(map[int]chan Change),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Initialize loads copies of the seed collections. Only the first call has an
// effect; the doctor list is frozen from then on.
func (s *Store) Initialize(doctors []model.Doctor, appointments []model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready || s.done {
		return
	}

	s.doctors = make([]model.Doctor, len(doctors))
	s.doctorIdx = make(map[string]int, len(doctors))
	for i, d := range doctors {
		s.doctors[i] = d.Clone()
		s.doctorIdx[d.ID] = i
	}

	s.appointments = make([]model.Appointment, len(appointments))
	for i, a := range appointments {
		s.appointments[i] = a.Clone()
	}
	s.ready = true
}

// Close tears the store down and ends every subscription. Later calls fail
// with ErrNotInitialized.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	s.ready = false
	s.doctors, s.doctorIdx, s.appointments = nil, nil, nil
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// caller holds mu
func (s *Store) check() error {
	if !s.ready {
		return ErrNotInitialized
	}
	return nil
}
