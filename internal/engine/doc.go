// Package engine implements the reactive field/event engine.
//
// A scene is a graph of typed nodes. Every node is an instance of a
// NodeType, whose FieldDescriptors (inherited along a flattened ancestor
// chain) give it named, typed fields with one of four access kinds. Routes
// connect output-capable fields to input-capable fields of the same kind.
//
// ARCHITECTURE:
//
// Single-Threaded Event Loop:
// A Scheduler owns simulation time, a time-ordered event queue and the
// per-tick work lists. Simulate runs one tick to completion:
//  1. Realize roots (first call only) and initialize new sensors.
//  2. Advance time to the earliest queued event.
//  3. Repeat rounds until nothing is due and nothing changed:
//     deliver due events to sensors, cascade dirty fields through their
//     routes (fields dirtied while routing join the same cascade), then
//     tick every time-dependent node.
//  4. Clear the dirty flag on every field that fired.
//
// Field Contract:
// A field may change at most once per tick. A second low-level write fails
// with ALREADY_DIRTY; the high-level Set used by routes drops it instead, so
// one saturated feedback edge does not abort unrelated routing.
//
// Lifecycle:
// Nodes move Created -> SettingUp -> Realized -> Disposed and never back.
// Init-only fields freeze at realization; cascading starts there.
//
// Determinism:
// Same-time events are ordered by a logical Clock. Routes activate in
// insertion order and dirty fields cascade in the order they changed.
package engine
