package service

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

// TransitionObserver is called after every phase change, outside the machine lock.
type TransitionObserver func(from, to domain.ActionPhase)

// ActionMachine tracks a single in-flight claim or purchase:
//
//	idle -> pending -> confirming -> success | error
//
// Begin hands out a generation; completions carrying an older generation (after a
// Reset or a newer Begin) are dropped.
type ActionMachine struct {
	mu         sync.Mutex
	state      domain.ActionState
	generation uint64
	observers  []TransitionObserver
}

func NewActionMachine() *ActionMachine {
	return &ActionMachine{state: domain.ActionState{Phase: domain.ActionIdle}}
}

func (m *ActionMachine) OnTransition(fn TransitionObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *ActionMachine) State() domain.ActionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Begin moves to pending. It fails with ErrActionInFlight while another action is
// pending or confirming.
func (m *ActionMachine) Begin() (uint64, error) {
	m.mu.Lock()
	if m.state.InFlight() {
		m.mu.Unlock()
		return 0, ErrActionInFlight
	}
	m.generation++
	gen := m.generation
	from := m.set(domain.ActionState{Phase: domain.ActionPending, Generation: gen})
	observers := m.observers
	m.mu.Unlock()

	notify(observers, from, domain.ActionPending)
	return gen, nil
}

func (m *ActionMachine) Confirming(gen uint64) bool {
	return m.advance(gen, domain.ActionPending, func(s *domain.ActionState) {
		s.Phase = domain.ActionConfirming
	})
}

func (m *ActionMachine) Succeed(gen uint64, reference string, amount *decimal.Decimal) bool {
	return m.advance(gen, "", func(s *domain.ActionState) {
		s.Phase = domain.ActionSuccess
		s.Reference = reference
		s.Amount = amount
	})
}

func (m *ActionMachine) Fail(gen uint64, message string) bool {
	return m.advance(gen, "", func(s *domain.ActionState) {
		s.Phase = domain.ActionError
		s.Error = message
	})
}

// Reject records a guard failure without ever entering pending.
func (m *ActionMachine) Reject(message string) error {
	m.mu.Lock()
	if m.state.InFlight() {
		m.mu.Unlock()
		return ErrActionInFlight
	}
	m.generation++
	from := m.set(domain.ActionState{Phase: domain.ActionError, Error: message, Generation: m.generation})
	observers := m.observers
	m.mu.Unlock()

	notify(observers, from, domain.ActionError)
	return nil
}

// Reset returns to idle from any phase and invalidates the in-flight generation.
func (m *ActionMachine) Reset() {
	m.mu.Lock()
	m.generation++
	from := m.set(domain.ActionState{Phase: domain.ActionIdle, Generation: m.generation})
	observers := m.observers
	m.mu.Unlock()

	notify(observers, from, domain.ActionIdle)
}

// advance applies fn when gen is current and the machine is in flight (or in the
// required phase, when given).
func (m *ActionMachine) advance(gen uint64, required domain.ActionPhase, fn func(*domain.ActionState)) bool {
	m.mu.Lock()
	if gen != m.generation || !m.state.InFlight() || (required != "" && m.state.Phase != required) {
		m.mu.Unlock()
		return false
	}
	next := m.state
	fn(&next)
	from := m.set(next)
	observers := m.observers
	m.mu.Unlock()

	notify(observers, from, next.Phase)
	return true
}

func (m *ActionMachine) set(next domain.ActionState) domain.ActionPhase {
	from := m.state.Phase
	m.state = next
	return from
}

func notify(observers []TransitionObserver, from, to domain.ActionPhase) {
	for _, fn := range observers {
		fn(from, to)
	}
}
