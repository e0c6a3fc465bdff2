// Package harness provides conformance testing for scenes.
//
// The harness loads a CUE scene, builds it on a fresh scheduler, drives it
// through a list of steps, and checks assertions against the recorded trace
// and the final field values. Scenes run on the real engine; nothing in the
// trace is synthesized.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: fade_once
//	description: "What this scenario validates"
//	scene: scenes/fade.cue        # relative to the scenario file
//	start_time: 0                 # optional
//	steps:
//	  - simulate: 1               # run up to N ticks
//	  - wake: 0.5                 # queue a pure wake-up
//	  - set: { node: Clock, field: stopTime, value: 2 }
//	  - until: 3                  # run every tick due up to time 3
//	assertions:
//	  - type: trace_contains
//	    node: Fade
//	    field: value_changed
//	    value: 50
//	    time: 1
//	  - type: final_value
//	    node: Clock
//	    field: isActive
//	    value: false
//
// Unknown keys are rejected so typos fail loudly.
//
// # Assertion Types
//
//   - trace_contains: an event for node.field (optionally with value and time) exists
//   - trace_count: exactly count events match node.field (value and time optional)
//   - trace_order: the listed "Node.field" or "Node.field=value" events occur in order
//   - final_value: node.field holds value after the last step
//   - expect_error: a step failed, optionally with an engine error code and message text
//
// Values are compared after parsing both sides as the field's kind, so 0.5,
// "0.5" and ".5" all match an SFFloat of one half.
//
// # Deterministic Testing
//
// Every scenario runs against a private in-memory SQLite store under a fixed
// run ID. The trace is written through a store.Recorder and read back, so a
// scenario exercises the same path the CLI uses. Identical scenarios produce
// byte-identical canonical traces for golden comparison.
package harness
