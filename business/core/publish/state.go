package publish

// State represents where a publish currently is in its workflow. The
// coordinator owns the state value and moves it strictly forward; Failed is
// reachable from every non-idle state.
type State int

// The set of states a publish moves through.
const (
	StateIdle State = iota
	StateDerivingProfile
	StateUploadingContent
	StateSubmittingTransaction
	StateConfirmingTransaction
	StateMirroring
	StateDone
	StateFailed
)

// stateNames provides the user facing name for each state.
var stateNames = [...]string{
	"idle",
	"deriving profile",
	"uploading content",
	"submitting transaction",
	"confirming transaction",
	"mirroring",
	"done",
	"failed",
}

// String implements the fmt.Stringer interface.
func (s State) String() string {
	if s < StateIdle || s > StateFailed {
		return "unknown"
	}
	return stateNames[s]
}

// InFlight reports whether the state represents a publish that is still
// running. A new publish may only begin when nothing is in flight.
func (s State) InFlight() bool {
	switch s {
	case StateIdle, StateDone, StateFailed:
		return false
	}
	return true
}
