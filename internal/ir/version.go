package ir

// Version constants for the canonical encoding and the tool.
const (
	// IRVersion is the canonical encoding version.
	IRVersion = "1"

	// ToolVersion is the synthkit version recorded with every run.
	ToolVersion = "0.1.0"
)
