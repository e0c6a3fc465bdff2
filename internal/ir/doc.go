// Package ir holds the plain data types shared between the scene loader,
// the engine front end, the trace store and the conformance harness.
//
// ir imports nothing internal. Scene declarations (SceneSpec) describe a
// scene before any node exists; TraceEvents describe what a run did. Both
// have a canonical JSON form used for hashing and golden files:
//   - Object keys sorted by UTF-16 code units
//   - No HTML escaping, no insignificant whitespace
//   - Strings NFC normalized
//   - Finite numbers only
package ir
