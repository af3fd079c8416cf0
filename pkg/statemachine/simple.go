package statemachine

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// SimpleStateMachine provides a thread-safe in-memory state machine implementation.
// Uses a nested map structure for O(1) transition lookups: [fromState][event][]Transition
type SimpleStateMachine struct {
	initialState State
	currentState State
	transitions  map[string]map[string][]Transition
	final        map[string]struct{}
	history      []Record
	hooks        []Hook
	now          func() time.Time
	mu           sync.RWMutex
}

func newSimpleStateMachine(initialState State) *SimpleStateMachine {
	return &SimpleStateMachine{
		initialState: initialState,
		currentState: initialState,
		transitions:  make(map[string]map[string][]Transition),
		final:        make(map[string]struct{}),
		now:          time.Now,
	}
}

func (sm *SimpleStateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// IsFinal reports whether the current state was declared final.
func (sm *SimpleStateMachine) IsFinal() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, ok := sm.final[sm.currentState.Name()]
	return ok
}

// History returns a copy of the transitions taken since creation or the last Reset.
func (sm *SimpleStateMachine) History() []Record {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Clone(sm.history)
}

func (sm *SimpleStateMachine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.final[from.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrFinalState, from.Name())
	}

	fromStateName := from.Name()
	eventName := event.Name()

	if _, ok := sm.transitions[fromStateName]; !ok {
		sm.transitions[fromStateName] = make(map[string][]Transition)
	}

	transition := Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	}

	// Multiple transitions allowed for same from/event to support guard-based branching
	sm.transitions[fromStateName][eventName] = append(sm.transitions[fromStateName][eventName], transition)
	return nil
}

// Fire moves the machine along the first transition whose guards pass.
// A cancelled ctx returns ctx.Err() without changing state.
func (sm *SimpleStateMachine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sm.mu.Lock()
	rec, err := sm.fireLocked(ctx, event, data)
	hooks := sm.hooks
	sm.mu.Unlock()

	if err != nil {
		return err
	}
	for _, hook := range hooks {
		hook(ctx, rec)
	}
	return nil
}

func (sm *SimpleStateMachine) fireLocked(ctx context.Context, event Event, data any) (Record, error) {
	currentStateName := sm.currentState.Name()
	eventName := event.Name()

	if _, ok := sm.final[currentStateName]; ok {
		return Record{}, fmt.Errorf("%w: %s", ErrFinalState, currentStateName)
	}

	transitions := sm.transitions[currentStateName][eventName]
	if len(transitions) == 0 {
		return Record{}, NewErrNoTransitionAvailable(currentStateName, eventName)
	}

	// First transition with passing guards wins (enables priority ordering)
	validTransition := sm.firstAllowed(ctx, transitions, event, data)
	if validTransition == nil {
		return Record{}, NewErrTransitionRejected(currentStateName, eventName)
	}

	// Execute actions before state change; any failure aborts transition
	for _, action := range validTransition.Actions {
		if action != nil {
			if err := action(ctx, sm.currentState, validTransition.To, event, data); err != nil {
				return Record{}, fmt.Errorf("action failed: %w", err)
			}
		}
	}

	rec := Record{
		From:  sm.currentState,
		To:    validTransition.To,
		Event: event,
		At:    sm.now(),
	}
	sm.currentState = validTransition.To
	sm.history = append(sm.history, rec)
	return rec, nil
}

func (sm *SimpleStateMachine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil || ctx.Err() != nil {
		return false
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if _, ok := sm.final[sm.currentState.Name()]; ok {
		return false
	}

	transitions := sm.transitions[sm.currentState.Name()][event.Name()]
	return sm.firstAllowed(ctx, transitions, event, data) != nil
}

func (sm *SimpleStateMachine) firstAllowed(ctx context.Context, transitions []Transition, event Event, data any) *Transition {
	for i, t := range transitions {
		allGuardsPassed := true
		for _, guard := range t.Guards {
			if guard != nil && !guard(ctx, sm.currentState, event, data) {
				allGuardsPassed = false
				break
			}
		}
		if allGuardsPassed {
			return &transitions[i]
		}
	}
	return nil
}

// Reset returns to the initial state and clears the history.
func (sm *SimpleStateMachine) Reset() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.currentState = sm.initialState
	sm.history = nil
	return nil
}
