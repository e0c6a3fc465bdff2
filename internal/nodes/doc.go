// Package nodes provides the built-in node types.
//
// The abstract bases mirror the X3D interface hierarchy (X3DNode,
// X3DChildNode, X3DSensorNode, X3DTimeDependentNode, X3DInterpolatorNode).
// The concrete types are Group, TimeSensor, ScalarInterpolator,
// PositionInterpolator and BooleanFilter. RegisterAll adds every type to an
// engine.Registry.
package nodes
