package orchestrator

// State is a step of the per-question pipeline.
type State int

const (
	StateIdle State = iota
	StateEmbedding
	StateRetrieving
	StateNoMatch
	StateFusing
	StatePrompting
	StateGenerating
	StateDelivering
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEmbedding:
		return "embedding"
	case StateRetrieving:
		return "retrieving"
	case StateNoMatch:
		return "no_match"
	case StateFusing:
		return "fusing"
	case StatePrompting:
		return "prompting"
	case StateGenerating:
		return "generating"
	case StateDelivering:
		return "delivering"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is how a question finished.
type Outcome int

const (
	OutcomeAnswered Outcome = iota
	OutcomeNoMatch
	OutcomeFailed
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnswered:
		return "answered"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeFailed:
		return "failed"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}
