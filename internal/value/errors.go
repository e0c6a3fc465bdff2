package value

import "fmt"

// TypeMismatchError is returned when a Value is unwrapped or assigned as a
// kind it does not have.
type TypeMismatchError struct {
	Want Kind
	Got  Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: want %s, got %s", e.Want, e.Got)
}

// ParseError reports text that could not be parsed as the requested kind.
type ParseError struct {
	Kind   Kind
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	text := e.Text
	if len(text) > 40 {
		text = text[:37] + "..."
	}
	return fmt.Sprintf("parse %s from %q: %s", e.Kind, text, e.Reason)
}
