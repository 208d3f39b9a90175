package pipeline

// State is the orchestrator's position in a generation run. Runs advance
// strictly forward; Failed is terminal and reachable from any earlier state.
type State string

const (
	StateStarted   State = "started"
	StateAnalyzed  State = "analyzed"
	StateRetrieved State = "retrieved"
	StateReranked  State = "reranked"
	StateGenerated State = "generated"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal reports whether a run in this state is finished.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
