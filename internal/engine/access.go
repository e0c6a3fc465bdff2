package engine

import "fmt"

// AccessKind is the read/write contract of a field.
type AccessKind int

const (
	// AccessInitOnly fields are assignable only before the node is realized.
	AccessInitOnly AccessKind = iota + 1
	// AccessInputOnly fields deliver writes straight to the field action.
	AccessInputOnly
	// AccessOutputOnly fields hold the last value sent and feed routes.
	AccessOutputOnly
	// AccessInputOutput fields combine both and filter redundant writes.
	AccessInputOutput
)

var accessNames = map[AccessKind]string{
	AccessInitOnly:    "initializeOnly",
	AccessInputOnly:   "inputOnly",
	AccessOutputOnly:  "outputOnly",
	AccessInputOutput: "inputOutput",
}

func (a AccessKind) String() string {
	if s, ok := accessNames[a]; ok {
		return s
	}
	return fmt.Sprintf("AccessKind(%d)", int(a))
}

// IsInput reports whether a route may deliver into a field of this kind.
func (a AccessKind) IsInput() bool {
	return a == AccessInputOnly || a == AccessInputOutput
}

// IsOutput reports whether a field of this kind can be a route source.
func (a AccessKind) IsOutput() bool {
	return a == AccessOutputOnly || a == AccessInputOutput
}

// ParseAccessKind resolves an access name such as "inputOutput".
// The VRML97 names (field, eventIn, eventOut, exposedField) are accepted too.
func ParseAccessKind(name string) (AccessKind, error) {
	switch name {
	case "initializeOnly", "field":
		return AccessInitOnly, nil
	case "inputOnly", "eventIn":
		return AccessInputOnly, nil
	case "outputOnly", "eventOut":
		return AccessOutputOnly, nil
	case "inputOutput", "exposedField":
		return AccessInputOutput, nil
	}
	return 0, fmt.Errorf("unknown access kind %q", name)
}

// Role is the direction a field name was resolved under. Input-output fields
// answer to their plain name (RoleAny), to set_<name> (RoleInput) and to
// <name>_changed (RoleOutput).
type Role int

const (
	RoleAny Role = iota
	RoleInput
	RoleOutput
)

// State is a node's lifecycle state. States only move forward.
type State int

const (
	// StateCreated exists only while field handles are being bound.
	StateCreated State = iota
	// StateSettingUp allows free assignment of init-only and input-output fields.
	StateSettingUp
	// StateRealized enables cascading and freezes init-only fields.
	StateRealized
	// StateDisposed is terminal.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSettingUp:
		return "setting up"
	case StateRealized:
		return "realized"
	case StateDisposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
