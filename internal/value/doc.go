// Package value provides the typed field values carried by scene nodes.
//
// Value is a sealed interface: only the SF* (single) and MF* (multiple)
// types declared in this package implement it. Every kind knows its Kind tag,
// prints itself in scene-description text form, parses from that form (see
// Parse) and compares by value (Equal).
//
// Node-reference kinds (SFNode, MFNode) hold NodeRef back-references. They
// never own the referenced node and cannot be produced by Parse beyond NULL
// or an empty list; resolving names to nodes is the scene loader's job.
//
// This package imports nothing internal so every other package may use it.
package value
