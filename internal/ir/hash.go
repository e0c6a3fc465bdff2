package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with old hashes.
const (
	DomainScene = "scenecore/scene/v1"
	DomainTrace = "scenecore/trace/v1"
)

// hashWithDomain returns hex(SHA256(domain + 0x00 + data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SceneHash identifies a scene declaration by content. Declaration order
// is significant; map key order is not.
func SceneHash(s *SceneSpec) (string, error) {
	canonical, err := MarshalCanonical(s.Object())
	if err != nil {
		return "", fmt.Errorf("SceneHash: %w", err)
	}
	return hashWithDomain(DomainScene, canonical), nil
}

// TraceHash identifies a sequence of trace events by content.
func TraceHash(events []TraceEvent) (string, error) {
	data, err := MarshalTrace(events)
	if err != nil {
		return "", fmt.Errorf("TraceHash: %w", err)
	}
	return hashWithDomain(DomainTrace, data), nil
}

// MustSceneHash is like SceneHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSceneHash(s *SceneSpec) string {
	h, err := SceneHash(s)
	if err != nil {
		panic(err)
	}
	return h
}
