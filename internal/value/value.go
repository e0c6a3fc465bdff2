package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a sealed interface over the field value kinds.
// Only the SF* and MF* types in this package implement it.
type Value interface {
	Kind() Kind
	// String prints the value in scene-description text form.
	String() string
	// Equal reports whether other has the same kind and contents.
	Equal(other Value) bool
	value()
}

// NodeRef is the unowned view of a node held by SFNode and MFNode values.
type NodeRef interface {
	Name() string
	TypeName() string
}

// SFBool is a boolean, printed TRUE or FALSE.
type SFBool bool

// SFInt32 is a 32-bit signed integer.
type SFInt32 int32

// SFFloat is a single-precision number.
type SFFloat float32

// SFDouble is a double-precision number.
type SFDouble float64

// SFTime is an absolute or relative time in seconds.
type SFTime float64

// SFString is a UTF-8 string. Parse normalises it to NFC.
type SFString string

// SFVec2f is a two-component vector.
type SFVec2f [2]float32

// SFVec3f is a three-component vector.
type SFVec3f [3]float32

// SFVec3d is a double-precision three-component vector.
type SFVec3d [3]float64

// SFColor is an RGB triple in [0,1].
type SFColor [3]float32

// SFRotation is an axis (x, y, z) and an angle in radians.
type SFRotation [4]float32

// SFMatrix4f is a row-major 4x4 matrix.
type SFMatrix4f [16]float32

// SFImage is an uncompressed image: Width*Height pixels of Components bytes
// each, packed into the low bytes of every uint32.
type SFImage struct {
	Width      int
	Height     int
	Components int
	Pixels     []uint32
}

// SFNode references a node, or nothing when Node is nil.
type SFNode struct {
	Node NodeRef
}

type (
	MFBool     []SFBool
	MFColor    []SFColor
	MFDouble   []SFDouble
	MFFloat    []SFFloat
	MFInt32    []SFInt32
	MFNode     []SFNode
	MFRotation []SFRotation
	MFString   []SFString
	MFTime     []SFTime
	MFVec2f    []SFVec2f
	MFVec3d    []SFVec3d
	MFVec3f    []SFVec3f
)

func (SFBool) value()     {}
func (SFInt32) value()    {}
func (SFFloat) value()    {}
func (SFDouble) value()   {}
func (SFTime) value()     {}
func (SFString) value()   {}
func (SFVec2f) value()    {}
func (SFVec3f) value()    {}
func (SFVec3d) value()    {}
func (SFColor) value()    {}
func (SFRotation) value() {}
func (SFMatrix4f) value() {}
func (SFImage) value()    {}
func (SFNode) value()     {}
func (MFBool) value()     {}
func (MFColor) value()    {}
func (MFDouble) value()   {}
func (MFFloat) value()    {}
func (MFInt32) value()    {}
func (MFNode) value()     {}
func (MFRotation) value() {}
func (MFString) value()   {}
func (MFTime) value()     {}
func (MFVec2f) value()    {}
func (MFVec3d) value()    {}
func (MFVec3f) value()    {}

func (SFBool) Kind() Kind     { return KindSFBool }
func (SFInt32) Kind() Kind    { return KindSFInt32 }
func (SFFloat) Kind() Kind    { return KindSFFloat }
func (SFDouble) Kind() Kind   { return KindSFDouble }
func (SFTime) Kind() Kind     { return KindSFTime }
func (SFString) Kind() Kind   { return KindSFString }
func (SFVec2f) Kind() Kind    { return KindSFVec2f }
func (SFVec3f) Kind() Kind    { return KindSFVec3f }
func (SFVec3d) Kind() Kind    { return KindSFVec3d }
func (SFColor) Kind() Kind    { return KindSFColor }
func (SFRotation) Kind() Kind { return KindSFRotation }
func (SFMatrix4f) Kind() Kind { return KindSFMatrix4f }
func (SFImage) Kind() Kind    { return KindSFImage }
func (SFNode) Kind() Kind     { return KindSFNode }
func (MFBool) Kind() Kind     { return KindMFBool }
func (MFColor) Kind() Kind    { return KindMFColor }
func (MFDouble) Kind() Kind   { return KindMFDouble }
func (MFFloat) Kind() Kind    { return KindMFFloat }
func (MFInt32) Kind() Kind    { return KindMFInt32 }
func (MFNode) Kind() Kind     { return KindMFNode }
func (MFRotation) Kind() Kind { return KindMFRotation }
func (MFString) Kind() Kind   { return KindMFString }
func (MFTime) Kind() Kind     { return KindMFTime }
func (MFVec2f) Kind() Kind    { return KindMFVec2f }
func (MFVec3d) Kind() Kind    { return KindMFVec3d }
func (MFVec3f) Kind() Kind    { return KindMFVec3f }

// Printing

func formatFloat32(f float32) string { return strconv.FormatFloat(float64(f), 'g', -1, 32) }
func formatFloat64(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func joinFloat32(fs []float32) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = formatFloat32(f)
	}
	return strings.Join(parts, " ")
}

func (v SFBool) String() string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (v SFInt32) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v SFFloat) String() string    { return formatFloat32(float32(v)) }
func (v SFDouble) String() string   { return formatFloat64(float64(v)) }
func (v SFTime) String() string     { return formatFloat64(float64(v)) }
func (v SFVec2f) String() string    { return joinFloat32(v[:]) }
func (v SFVec3f) String() string    { return joinFloat32(v[:]) }
func (v SFColor) String() string    { return joinFloat32(v[:]) }
func (v SFRotation) String() string { return joinFloat32(v[:]) }
func (v SFMatrix4f) String() string { return joinFloat32(v[:]) }

func (v SFVec3d) String() string {
	return formatFloat64(v[0]) + " " + formatFloat64(v[1]) + " " + formatFloat64(v[2])
}

func (v SFString) String() string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range string(v) {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func (v SFImage) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d %d", v.Width, v.Height, v.Components)
	digits := v.Components * 2
	if digits == 0 {
		digits = 2
	}
	for _, p := range v.Pixels {
		fmt.Fprintf(&b, " 0x%0*X", digits, p)
	}
	return b.String()
}

func (v SFNode) String() string {
	if v.Node == nil {
		return "NULL"
	}
	if name := v.Node.Name(); name != "" {
		return name
	}
	return v.Node.TypeName() + " {}"
}

func printList[T Value](items []T) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(it.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (v MFBool) String() string     { return printList([]SFBool(v)) }
func (v MFColor) String() string    { return printList([]SFColor(v)) }
func (v MFDouble) String() string   { return printList([]SFDouble(v)) }
func (v MFFloat) String() string    { return printList([]SFFloat(v)) }
func (v MFInt32) String() string    { return printList([]SFInt32(v)) }
func (v MFNode) String() string     { return printList([]SFNode(v)) }
func (v MFRotation) String() string { return printList([]SFRotation(v)) }
func (v MFString) String() string   { return printList([]SFString(v)) }
func (v MFTime) String() string     { return printList([]SFTime(v)) }
func (v MFVec2f) String() string    { return printList([]SFVec2f(v)) }
func (v MFVec3d) String() string    { return printList([]SFVec3d(v)) }
func (v MFVec3f) String() string    { return printList([]SFVec3f(v)) }

// Equality

func equalAs[T comparable](a T, other Value) bool {
	b, ok := other.(T)
	return ok && a == b
}

func (v SFBool) Equal(o Value) bool     { return equalAs(v, o) }
func (v SFInt32) Equal(o Value) bool    { return equalAs(v, o) }
func (v SFFloat) Equal(o Value) bool    { return equalAs(v, o) }
func (v SFDouble) Equal(o Value) bool   { return equalAs(v, o) }
func (v SFTime) Equal(o Value) bool     { return equalAs(v, o) }
func (v SFString) Equal(o Value) bool   { return equalAs(v, o) }
func (v SFVec2f) Equal(o Value) bool    { return equalAs(v, o) }
func (v SFVec3f) Equal(o Value) bool    { return equalAs(v, o) }
func (v SFVec3d) Equal(o Value) bool    { return equalAs(v, o) }
func (v SFColor) Equal(o Value) bool    { return equalAs(v, o) }
func (v SFRotation) Equal(o Value) bool { return equalAs(v, o) }
func (v SFMatrix4f) Equal(o Value) bool { return equalAs(v, o) }

// Equal compares node identity, not node contents.
func (v SFNode) Equal(o Value) bool { return equalAs(v, o) }

func (v SFImage) Equal(o Value) bool {
	b, ok := o.(SFImage)
	if !ok || v.Width != b.Width || v.Height != b.Height || v.Components != b.Components || len(v.Pixels) != len(b.Pixels) {
		return false
	}
	for i := range v.Pixels {
		if v.Pixels[i] != b.Pixels[i] {
			return false
		}
	}
	return true
}

func equalList[T Value](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (v MFBool) Equal(o Value) bool {
	b, ok := o.(MFBool)
	return ok && equalList([]SFBool(v), []SFBool(b))
}

func (v MFColor) Equal(o Value) bool {
	b, ok := o.(MFColor)
	return ok && equalList([]SFColor(v), []SFColor(b))
}

func (v MFDouble) Equal(o Value) bool {
	b, ok := o.(MFDouble)
	return ok && equalList([]SFDouble(v), []SFDouble(b))
}

func (v MFFloat) Equal(o Value) bool {
	b, ok := o.(MFFloat)
	return ok && equalList([]SFFloat(v), []SFFloat(b))
}

func (v MFInt32) Equal(o Value) bool {
	b, ok := o.(MFInt32)
	return ok && equalList([]SFInt32(v), []SFInt32(b))
}

func (v MFNode) Equal(o Value) bool {
	b, ok := o.(MFNode)
	return ok && equalList([]SFNode(v), []SFNode(b))
}

func (v MFRotation) Equal(o Value) bool {
	b, ok := o.(MFRotation)
	return ok && equalList([]SFRotation(v), []SFRotation(b))
}

func (v MFString) Equal(o Value) bool {
	b, ok := o.(MFString)
	return ok && equalList([]SFString(v), []SFString(b))
}

func (v MFTime) Equal(o Value) bool {
	b, ok := o.(MFTime)
	return ok && equalList([]SFTime(v), []SFTime(b))
}

func (v MFVec2f) Equal(o Value) bool {
	b, ok := o.(MFVec2f)
	return ok && equalList([]SFVec2f(v), []SFVec2f(b))
}

func (v MFVec3d) Equal(o Value) bool {
	b, ok := o.(MFVec3d)
	return ok && equalList([]SFVec3d(v), []SFVec3d(b))
}

func (v MFVec3f) Equal(o Value) bool {
	b, ok := o.(MFVec3f)
	return ok && equalList([]SFVec3f(v), []SFVec3f(b))
}

// As unwraps v as the concrete kind T. A nil v or a different kind yields
// a *TypeMismatchError.
func As[T Value](v Value) (T, error) {
	var zero T
	t, ok := v.(T)
	if !ok {
		got := KindInvalid
		if v != nil {
			got = v.Kind()
		}
		return zero, &TypeMismatchError{Want: zero.Kind(), Got: got}
	}
	return t, nil
}

// Zero returns the default value of kind k.
func Zero(k Kind) Value {
	switch k {
	case KindSFBool:
		return SFBool(false)
	case KindSFColor:
		return SFColor{}
	case KindSFDouble:
		return SFDouble(0)
	case KindSFFloat:
		return SFFloat(0)
	case KindSFImage:
		return SFImage{}
	case KindSFInt32:
		return SFInt32(0)
	case KindSFMatrix4f:
		return SFMatrix4f{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	case KindSFNode:
		return SFNode{}
	case KindSFRotation:
		return SFRotation{0, 0, 1, 0}
	case KindSFString:
		return SFString("")
	case KindSFTime:
		return SFTime(0)
	case KindSFVec2f:
		return SFVec2f{}
	case KindSFVec3d:
		return SFVec3d{}
	case KindSFVec3f:
		return SFVec3f{}
	case KindMFBool:
		return MFBool{}
	case KindMFColor:
		return MFColor{}
	case KindMFDouble:
		return MFDouble{}
	case KindMFFloat:
		return MFFloat{}
	case KindMFInt32:
		return MFInt32{}
	case KindMFNode:
		return MFNode{}
	case KindMFRotation:
		return MFRotation{}
	case KindMFString:
		return MFString{}
	case KindMFTime:
		return MFTime{}
	case KindMFVec2f:
		return MFVec2f{}
	case KindMFVec3d:
		return MFVec3d{}
	case KindMFVec3f:
		return MFVec3f{}
	default:
		return nil
	}
}

// Nodes returns the node references held by v, skipping NULL entries.
// Values of other kinds hold none.
func Nodes(v Value) []NodeRef {
	switch val := v.(type) {
	case SFNode:
		if val.Node != nil {
			return []NodeRef{val.Node}
		}
	case MFNode:
		refs := make([]NodeRef, 0, len(val))
		for _, n := range val {
			if n.Node != nil {
				refs = append(refs, n.Node)
			}
		}
		return refs
	}
	return nil
}
