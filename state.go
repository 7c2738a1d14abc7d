package regiond

// State is the lifecycle state of a Server.
//
//	Idle -> Loading -> Serving -> Draining -> Stopped
//	          \-> Stopped (load or bind failure)
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateServing
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateServing:
		return "serving"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
