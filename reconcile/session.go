/*
session.go - Reconciliation session state machine

PURPOSE:
  Models the lifecycle of one reconciliation, whether a first save or a
  correction of a persisted entry:

    Collecting -> Computed -> Saved             (normal save)
                           -> CorrectionApplied (correction commit)
    Saved / CorrectionApplied -> Collecting     (reset for next period)
    any pre-commit state      -> Collecting     (cancel, nothing persisted)

  There is no path from Saved/CorrectionApplied back to editing except
  by opening a new correction session against the persisted entry.

  The session itself performs no I/O; persistence lives behind the
  history.Store boundary. It exists so "editing while saving" bugs are
  structurally impossible: inputs are frozen into a PeriodInput at
  Compute time, and the commit works from that frozen value.
*/
package reconcile

// State is the session's position in the lifecycle.
type State string

const (
	StateCollecting        State = "collecting"
	StateComputed          State = "computed"
	StateSaved             State = "saved"
	StateCorrectionApplied State = "correction_applied"
)

// Session tracks one reconciliation from input collection to commit.
// The zero value is not usable; call NewSession or NewCorrectionSession.
type Session struct {
	state        State
	correctionOf string // history entry being corrected, "" for normal saves

	input  PeriodInput
	ledger Ledger
}

// NewSession starts a normal (first-save) session.
func NewSession() *Session {
	return &Session{state: StateCollecting}
}

// NewCorrectionSession starts a session that revises the persisted
// entry with the given id.
func NewCorrectionSession(entryID string) *Session {
	return &Session{state: StateCollecting, correctionOf: entryID}
}

func (s *Session) State() State         { return s.state }
func (s *Session) IsCorrection() bool   { return s.correctionOf != "" }
func (s *Session) CorrectionOf() string { return s.correctionOf }

// Compute freezes the collected inputs and derives the ledger.
// Allowed from Collecting, and from Computed (re-compute after edits).
func (s *Session) Compute(in PeriodInput) (Ledger, error) {
	if s.state != StateCollecting && s.state != StateComputed {
		return Ledger{}, ErrInvalidTransition
	}
	ledger, err := Reconcile(in)
	if err != nil {
		return Ledger{}, err
	}
	s.input = in
	s.ledger = ledger
	s.state = StateComputed
	return ledger, nil
}

// Input returns the frozen period input. Only valid once Computed.
func (s *Session) Input() (PeriodInput, bool) {
	if s.state != StateComputed {
		return PeriodInput{}, false
	}
	return s.input, true
}

// Ledger returns the derived ledger. Only valid once Computed.
func (s *Session) Ledger() (Ledger, bool) {
	if s.state != StateComputed {
		return Ledger{}, false
	}
	return s.ledger, true
}

// MarkSaved records a successful normal-save commit.
func (s *Session) MarkSaved() error {
	if s.state != StateComputed || s.IsCorrection() {
		return ErrInvalidTransition
	}
	s.state = StateSaved
	return nil
}

// MarkCorrectionApplied records a successful correction commit.
func (s *Session) MarkCorrectionApplied() error {
	if s.state != StateComputed || !s.IsCorrection() {
		return ErrInvalidTransition
	}
	s.state = StateCorrectionApplied
	return nil
}

// Reset returns the session to Collecting for the next period.
// Allowed only after a commit.
func (s *Session) Reset() error {
	if s.state != StateSaved && s.state != StateCorrectionApplied {
		return ErrInvalidTransition
	}
	*s = Session{state: StateCollecting}
	return nil
}

// Cancel abandons in-progress edits with no persisted effect. Once a
// commit has happened there is nothing left to cancel.
func (s *Session) Cancel() error {
	if s.state == StateSaved || s.state == StateCorrectionApplied {
		return ErrInvalidTransition
	}
	*s = Session{state: StateCollecting}
	return nil
}
