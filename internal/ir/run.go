package ir

// Outcome classifies how a synthesis run ended.
type Outcome string

const (
	OutcomeRealizable         Outcome = "realizable"
	OutcomeUnrealizable       Outcome = "unrealizable"
	OutcomeInvalidSystem      Outcome = "invalid_system"
	OutcomeSpecConflict       Outcome = "spec_conflict"
	OutcomeUnsupportedBackend Outcome = "unsupported_backend"
	OutcomeBackendFailure     Outcome = "backend_failure"
)

// RunRecord is the persisted form of one dispatch.
type RunRecord struct {
	ID            string   `json:"id"`  // UUIDv7
	Seq           int64    `json:"seq"` // Assigned by the store, monotonic
	Backend       string   `json:"backend"`
	SpecHash      string   `json:"spec_hash"`             // FragmentHash of the dispatched fragment
	SystemHash    string   `json:"system_hash,omitempty"` // Empty when no system was supplied
	Outcome       Outcome  `json:"outcome"`
	RemovedStates []string `json:"removed_states"`
	ErrorMessage  string   `json:"error_message,omitempty"`
	Result        Object   `json:"result,omitempty"` // Canonical result, nil on error
	ToolVersion   string   `json:"tool_version"`
	IRVersion     string   `json:"ir_version"`
}
