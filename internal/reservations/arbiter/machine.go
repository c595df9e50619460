package arbiter

import (
	"context"

	"carbroker/pkg/logger"

	"github.com/looplab/fsm"
)

const (
	StateChecking   = "checking"
	StateLocking    = "locking"
	StateSubmitting = "submitting"
	StateCommitted  = "committed"
	StateRolledBack = "rolled_back"

	eventLock     = "lock"
	eventSubmit   = "submit"
	eventCommit   = "commit"
	eventConflict = "conflict"
	eventRollback = "rollback"
)

// Results reported to the Recorder.
const (
	resultCommitted   = "committed"
	resultAmbiguous   = "ambiguous"
	resultRejected    = "rejected"
	resultConflict    = "conflict"
	resultLockTimeout = "lock_timeout"
)

type attemptMachine struct {
	fsm *fsm.FSM
	log *logger.Logger
}

func newAttemptMachine(log *logger.Logger) *attemptMachine {
	m := &attemptMachine{log: log}
	m.fsm = fsm.NewFSM(
		StateChecking,
		fsm.Events{
			{Name: eventLock, Src: []string{StateChecking}, Dst: StateLocking},
			{Name: eventSubmit, Src: []string{StateLocking}, Dst: StateSubmitting},
			{Name: eventCommit, Src: []string{StateSubmitting}, Dst: StateCommitted},
			{Name: eventConflict, Src: []string{StateChecking, StateLocking}, Dst: StateRolledBack},
			{Name: eventRollback, Src: []string{StateLocking, StateSubmitting}, Dst: StateRolledBack},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Debug("Booking attempt transition", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return m
}

// fire applies event; an invalid transition is a programming error and is
// logged rather than surfaced. Transitions never observe caller
// cancellation: once the vendor has answered, the attempt must still reach
// its terminal state.
func (m *attemptMachine) fire(ctx context.Context, event string) {
	if err := m.fsm.Event(context.WithoutCancel(ctx), event); err != nil {
		m.log.Error("Invalid booking attempt transition", "event", event, "state", m.fsm.Current(), "error", err)
	}
}

func (m *attemptMachine) current() string {
	return m.fsm.Current()
}
