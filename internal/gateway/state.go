package gateway

// State is one step of the Handle pipeline.
type State int

const (
	StateIdle State = iota
	StateResolvingEndpoint
	StateCheckingModel
	StateClassifying
	StateDispatching
	StateInferring
	StateFallingBack
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingEndpoint:
		return "resolving_endpoint"
	case StateCheckingModel:
		return "checking_model"
	case StateClassifying:
		return "classifying"
	case StateDispatching:
		return "dispatching"
	case StateInferring:
		return "inferring"
	case StateFallingBack:
		return "falling_back"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
