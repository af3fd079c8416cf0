// Package statemachine is a small finite state machine used to drive
// multi-stage pipelines such as a test send.
//
// States and events are anything with a Name; StringState and StringEvent
// cover the common case. Transitions are registered up front, optionally with
// guards that can veto them and actions that run before the state changes:
//
//	const (
//		Render   = statemachine.StringState("render")
//		Dispatch = statemachine.StringState("dispatch")
//		Done     = statemachine.StringState("done")
//		Advance  = statemachine.StringEvent("advance")
//	)
//
//	sm, err := statemachine.New(Render,
//		statemachine.WithTransitions([]statemachine.TransitionDef{
//			{From: Render, To: Dispatch, Event: Advance},
//			{From: Dispatch, To: Done, Event: Advance},
//		}),
//		statemachine.WithFinalStates(Done),
//		statemachine.WithHook(func(ctx context.Context, rec statemachine.Record) {
//			log.Printf("%s -> %s", rec.From.Name(), rec.To.Name())
//		}),
//	)
//
// Fire checks the context first: once it is cancelled no transition happens
// and ctx.Err() is returned. A machine in a final state rejects every event
// with ErrFinalState, and no transition may leave a final state.
//
// Every successful transition is appended to History and handed to the hooks
// after the lock is released, so hooks may call Current or History.
//
// Lookup failures are typed: IsNoTransitionAvailableError reports an
// undefined state/event pair, IsTransitionRejectedError a guard veto.
//
// SimpleStateMachine is safe for concurrent use.
package statemachine
