package media

import "medialinkd/internal/fsm"

// Event names the trigger a caller fires against a MediaFile's current
// Status. Transitions is the single authoritative table of which events are
// legal from which status; the registry guards every mutation through it
// instead of re-deriving the state graph with ad-hoc status comparisons.
type Event string

const (
	EventClaim    Event = "claim"
	EventComplete Event = "complete"
	EventNoMatch  Event = "no_match"
	EventConflict Event = "conflict"
	EventFail     Event = "fail"
	EventRetry    Event = "retry"
)

// allStatuses enumerates every Status value Transitions is built over, so
// RetryableStatuses can discover legal sources instead of hardcoding them.
var allStatuses = []Status{
	StatusPending, StatusProcessing, StatusCompleted,
	StatusFailed, StatusNoMatch, StatusConflict,
}

// Transitions is the guarded state machine from §4.7: PENDING -> PROCESSING
// on claim; PROCESSING fans out to the three terminal-ish outcomes plus
// FAILED; and FAILED/NO_MATCH/CONFLICT each accept a user-initiated retry
// back to PENDING.
var Transitions = mustMachine([]fsm.Transition[Status, Event]{
	{From: StatusPending, Event: EventClaim, To: StatusProcessing},
	{From: StatusProcessing, Event: EventComplete, To: StatusCompleted},
	{From: StatusProcessing, Event: EventNoMatch, To: StatusNoMatch},
	{From: StatusProcessing, Event: EventConflict, To: StatusConflict},
	{From: StatusProcessing, Event: EventFail, To: StatusFailed},
	{From: StatusFailed, Event: EventRetry, To: StatusPending},
	{From: StatusNoMatch, Event: EventRetry, To: StatusPending},
	{From: StatusConflict, Event: EventRetry, To: StatusPending},
})

func mustMachine(transitions []fsm.Transition[Status, Event]) *fsm.Machine[Status, Event] {
	m, err := fsm.New(transitions)
	if err != nil {
		panic(err)
	}
	return m
}

// RetryableStatuses lists every Status from which EventRetry is a legal
// transition, per Transitions — the set a retry's "WHERE status IN (...)"
// guard is built from.
func RetryableStatuses() []Status {
	out := make([]Status, 0, len(allStatuses))
	for _, s := range allStatuses {
		if Transitions.CanFire(s, EventRetry) {
			out = append(out, s)
		}
	}
	return out
}
