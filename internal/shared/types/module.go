package types

// State represents module lifecycle states
type State string

const (
	StateCreated State = "created"
	StateStarted State = "started"
	StateEnded   State = "ended"
	StateFailed  State = "failed"
)

// ModuleInfo describes a registered module
type ModuleInfo struct {
	ID    string `json:"id"`
	State State  `json:"state"`
	Error string `json:"error,omitempty"`
}

// Stats contains application statistics
type Stats struct {
	TotalModules   int `json:"total_modules"`
	StartedModules int `json:"started_modules"`
	FailedModules  int `json:"failed_modules"`
	Subscribers    int `json:"subscribers"`
}
