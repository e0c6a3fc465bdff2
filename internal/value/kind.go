package value

import "fmt"

// Kind identifies the concrete type of a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindSFBool
	KindSFColor
	KindSFDouble
	KindSFFloat
	KindSFImage
	KindSFInt32
	KindSFMatrix4f
	KindSFNode
	KindSFRotation
	KindSFString
	KindSFTime
	KindSFVec2f
	KindSFVec3d
	KindSFVec3f
	KindMFBool
	KindMFColor
	KindMFDouble
	KindMFFloat
	KindMFInt32
	KindMFNode
	KindMFRotation
	KindMFString
	KindMFTime
	KindMFVec2f
	KindMFVec3d
	KindMFVec3f
)

var kindNames = map[Kind]string{
	KindInvalid:    "<invalid>",
	KindSFBool:     "SFBool",
	KindSFColor:    "SFColor",
	KindSFDouble:   "SFDouble",
	KindSFFloat:    "SFFloat",
	KindSFImage:    "SFImage",
	KindSFInt32:    "SFInt32",
	KindSFMatrix4f: "SFMatrix4f",
	KindSFNode:     "SFNode",
	KindSFRotation: "SFRotation",
	KindSFString:   "SFString",
	KindSFTime:     "SFTime",
	KindSFVec2f:    "SFVec2f",
	KindSFVec3d:    "SFVec3d",
	KindSFVec3f:    "SFVec3f",
	KindMFBool:     "MFBool",
	KindMFColor:    "MFColor",
	KindMFDouble:   "MFDouble",
	KindMFFloat:    "MFFloat",
	KindMFInt32:    "MFInt32",
	KindMFNode:     "MFNode",
	KindMFRotation: "MFRotation",
	KindMFString:   "MFString",
	KindMFTime:     "MFTime",
	KindMFVec2f:    "MFVec2f",
	KindMFVec3d:    "MFVec3d",
	KindMFVec3f:    "MFVec3f",
}

// mfElement maps each multi-valued kind to its element kind.
var mfElement = map[Kind]Kind{
	KindMFBool:     KindSFBool,
	KindMFColor:    KindSFColor,
	KindMFDouble:   KindSFDouble,
	KindMFFloat:    KindSFFloat,
	KindMFInt32:    KindSFInt32,
	KindMFNode:     KindSFNode,
	KindMFRotation: KindSFRotation,
	KindMFString:   KindSFString,
	KindMFTime:     KindSFTime,
	KindMFVec2f:    KindSFVec2f,
	KindMFVec3d:    KindSFVec3d,
	KindMFVec3f:    KindSFVec3f,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsMulti reports whether k is one of the MF* list kinds.
func (k Kind) IsMulti() bool {
	_, ok := mfElement[k]
	return ok
}

// Element returns the element kind of an MF* kind, or k itself otherwise.
func (k Kind) Element() Kind {
	if e, ok := mfElement[k]; ok {
		return e
	}
	return k
}

// IsNodeRef reports whether values of k hold node back-references.
func (k Kind) IsNodeRef() bool {
	return k == KindSFNode || k == KindMFNode
}

// ParseKind resolves a type name such as "SFVec3f" to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if k != KindInvalid && n == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown field type %q", name)
}
