package ir

// Version constants for the trace format and engine.
const (
	// IRVersion is the trace and scene declaration schema version.
	IRVersion = "1"

	// EngineVersion is the scenecore engine version recorded with every run.
	EngineVersion = "0.1.0"
)
