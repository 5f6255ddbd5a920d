package pipeline

// State is a step of a single handling.
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateExtracting  State = "extracting"
	StateReconciling State = "reconciling"
	StateAssembling  State = "assembling"
	StatePublishing  State = "publishing"
	StateCleaningUp  State = "cleaning_up"
	StateFailed      State = "failed"
)

// StateHook observes state transitions of a handling. It is called synchronously.
type StateHook func(uri string, from, to State)

// CanFail reports whether a handling may move from s to StateFailed.
func (s State) CanFail() bool {
	switch s {
	case StateFetching, StateExtracting, StateReconciling, StateAssembling, StatePublishing:
		return true
	}
	return false
}
