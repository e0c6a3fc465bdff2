package ir

import (
	"slices"
	"unicode/utf16"
)

// IRValue is a sealed interface over the JSON-shaped literals that appear in
// scene declarations. Only IRString, IRInt, IRFloat, IRBool, IRArray and
// IRObject implement it.
type IRValue interface {
	irValue()
}

// IRString is a string literal.
type IRString string

func (IRString) irValue() {}

// IRInt is an integer literal.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat is a non-integer literal. NaN and infinities are rejected by
// MarshalCanonical.
type IRFloat float64

func (IRFloat) irValue() {}

// IRBool is a boolean literal.
type IRBool bool

func (IRBool) irValue() {}

// IRArray is a list literal.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject is a struct literal. Use SortedKeys for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// SortedKeys returns keys in canonical order (UTF-16 code units), which
// differs from Go's byte-wise string order outside the BMP.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
