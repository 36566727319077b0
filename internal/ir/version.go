package ir

// Version constants for the problem IR and engine.
const (
	// IRVersion is the problem IR schema version.
	IRVersion = "1"

	// EngineVersion is the tyinfer engine version.
	EngineVersion = "0.1.0"
)
