package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleScene() *SceneSpec {
	return &SceneSpec{
		Name: "fade",
		Nodes: []NodeDecl{
			{Name: "Clock", Type: "TimeSensor", Fields: []FieldAssign{
				{Name: "loop", Value: IRBool(true)},
				{Name: "cycleInterval", Value: IRFloat(2.5)},
			}},
			{Name: "Fade", Type: "ScalarInterpolator", Fields: []FieldAssign{
				{Name: "key", Value: IRArray{IRInt(0), IRInt(1)}},
			}},
		},
		Routes: []RouteDecl{{FromNode: "Clock", FromField: "fraction_changed", ToNode: "Fade", ToField: "set_fraction"}},
		Roots:  []string{"Clock"},
	}
}

func TestSceneHash_Deterministic(t *testing.T) {
	h1, err := SceneHash(sampleScene())
	require.NoError(t, err)
	h2 := MustSceneHash(sampleScene())
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestSceneHash_ChangesWithContent(t *testing.T) {
	base := MustSceneHash(sampleScene())

	renamed := sampleScene()
	renamed.Nodes[0].Name = "Timer"
	assert.NotEqual(t, base, MustSceneHash(renamed))

	reordered := sampleScene()
	reordered.Nodes[0], reordered.Nodes[1] = reordered.Nodes[1], reordered.Nodes[0]
	assert.NotEqual(t, base, MustSceneHash(reordered), "declaration order is significant")

	retyped := sampleScene()
	retyped.Nodes[0].Fields[1].Value = IRInt(2)
	assert.NotEqual(t, base, MustSceneHash(retyped))
}

func TestSceneHash_MissingValue(t *testing.T) {
	s := sampleScene()
	s.Nodes[0].Fields[0].Value = nil
	_, err := SceneHash(s)
	assert.Error(t, err)
	assert.Panics(t, func() { MustSceneHash(s) })
}

func TestTraceHash_DomainSeparated(t *testing.T) {
	events := []TraceEvent{{Seq: 1, Node: "A", Field: "f", Kind: "SFBool", Value: "TRUE"}}
	h, err := TraceHash(events)
	require.NoError(t, err)

	data, err := MarshalTrace(events)
	require.NoError(t, err)
	assert.Equal(t, hashWithDomain(DomainTrace, data), h)
	assert.NotEqual(t, hashWithDomain(DomainScene, data), h)
}
