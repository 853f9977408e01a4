package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned by SessionStore.Load for an unknown id.
	ErrSessionNotFound = errors.New("wizard: session not found")
	// ErrSubmitted is returned when a submitted registration is edited.
	ErrSubmitted = errors.New("wizard: registration already submitted")
)

// Session is one registration in progress. It is the only holder of the
// form state; steps read and write it through the methods below, and it is
// persisted by Save, SaveAndNext and Submit.
type Session struct {
	ID          string    `json:"id"`
	CurrentStep int       `json:"currentStep"`
	State       State     `json:"state"`
	Submitted   bool      `json:"submitted"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SessionStore persists sessions.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
}

// Manager creates sessions and supplies ids and time.
type Manager struct {
	store SessionStore
	newID func() string
	now   func() time.Time
}

type ManagerOption func(*Manager)

// WithIDGenerator replaces uuid for list item and session ids.
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *Manager) { m.newID = fn }
}

func WithClock(fn func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = fn }
}

func NewManager(store SessionStore, opts ...ManagerOption) *Manager {
	m := &Manager{store: store, newID: uuid.NewString, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start creates and saves an empty session on step 1.
func (m *Manager) Start(ctx context.Context) (*Session, error) {
	now := m.now()
	s := &Session{
		ID:          m.newID(),
		CurrentStep: FirstStep,
		State:       NewState(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	return m.store.Load(ctx, id)
}

// Edit replaces the form state. It is not persisted until the next save.
func (m *Manager) Edit(s *Session, state State) error {
	if s.Submitted {
		return ErrSubmitted
	}
	state.Shifts.WorkingDays = normalizeDays(state.Shifts.WorkingDays)
	s.State = state
	return nil
}

// EditList applies a sub-list operation and returns the item id.
func (m *Manager) EditList(s *Session, list string, op ListOp, itemID string, raw json.RawMessage) (string, error) {
	if s.Submitted {
		return "", ErrSubmitted
	}
	var newID string
	if op == OpAdd {
		newID = m.newID()
	}
	return s.State.ApplyList(list, op, itemID, raw, newID)
}

// Next advances one step if the current step validates.
func (s *Session) Next() error {
	if err := ValidateStep(s.State, s.CurrentStep); err != nil {
		return err
	}
	if s.CurrentStep < LastStep {
		s.CurrentStep++
	}
	return nil
}

// Back moves one step back without validating.
func (s *Session) Back() {
	if s.CurrentStep > FirstStep {
		s.CurrentStep--
	}
}

// GoTo jumps to step n. Moving forward requires every step before n to
// validate.
func (s *Session) GoTo(n int) error {
	if n < FirstStep || n > LastStep {
		return &StepError{Step: n, Message: "no such step"}
	}
	for step := FirstStep; step < n && n > s.CurrentStep; step++ {
		if err := ValidateStep(s.State, step); err != nil {
			return err
		}
	}
	s.CurrentStep = n
	return nil
}

// Checklist is the final step's summary of s.
func (s *Session) Checklist() []ChecklistItem {
	return Checklist(s.State)
}

// SaveAndNext validates the current step, advances, and persists.
func (m *Manager) SaveAndNext(ctx context.Context, s *Session) error {
	if s.Submitted {
		return ErrSubmitted
	}
	if err := s.Next(); err != nil {
		return err
	}
	return m.save(ctx, s)
}

// Save persists the session without moving.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if s.Submitted {
		return ErrSubmitted
	}
	return m.save(ctx, s)
}

// Submit re-validates the current step and persists the session as
// submitted. On the checklist step that covers every step.
func (m *Manager) Submit(ctx context.Context, s *Session) error {
	if s.Submitted {
		return ErrSubmitted
	}
	if err := ValidateStep(s.State, s.CurrentStep); err != nil {
		return err
	}
	s.Submitted = true
	if err := m.save(ctx, s); err != nil {
		s.Submitted = false
		return err
	}
	return nil
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	s.UpdatedAt = m.now()
	return m.store.Save(ctx, s)
}
