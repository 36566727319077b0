package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainBoundEvent = "tyinfer/bound-event/v1"
	DomainFixation   = "tyinfer/fixation/v1"
	DomainProblem    = "tyinfer/problem/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// BoundEventID computes the content-addressed ID of a trace event within a
// solve session. The ID is stable across replays of the same problem.
func BoundEventID(sessionID string, seq int64, eventType, variable, bound string) (string, error) {
	obj := map[string]any{
		"session_id": sessionID,
		"seq":        seq,
		"type":       eventType,
		"variable":   variable,
		"bound":      bound,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("BoundEventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBoundEvent, canonical), nil
}

// FixationID computes the content-addressed ID of a fixation record.
func FixationID(sessionID, variable string, order int) (string, error) {
	obj := map[string]any{
		"session_id": sessionID,
		"variable":   variable,
		"order":      order,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("FixationID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainFixation, canonical), nil
}

// ProblemHash fingerprints a problem by its rendered declarations, so two
// sessions over the same problem can be correlated in the store.
func ProblemHash(p *Problem) (string, error) {
	constructors := make([]any, 0)
	if p.Universe != nil {
		for _, c := range p.Universe.Constructors() {
			supers := make([]any, len(c.Supertypes))
			for i, s := range c.Supertypes {
				supers[i] = s.String()
			}
			constructors = append(constructors, map[string]any{
				"name":       c.String(),
				"supertypes": supers,
			})
		}
	}

	variables := make([]any, len(p.Variables))
	for i, decl := range p.Variables {
		variables[i] = map[string]any{"name": decl.Var.Name, "local": decl.Local}
	}

	constraints := make([]any, len(p.Constraints))
	for i, c := range p.Constraints {
		constraints[i] = map[string]any{
			"kind":     c.Kind.Name(),
			"sub":      c.Sub.String(),
			"super":    c.Super.String(),
			"position": c.Position,
		}
	}

	obj := map[string]any{
		"name":         p.Name,
		"constructors": constructors,
		"variables":    variables,
		"constraints":  constraints,
	}
	if p.Expected != nil {
		obj["expected"] = p.Expected.String()
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ProblemHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProblem, canonical), nil
}

// MustBoundEventID is like BoundEventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustBoundEventID(sessionID string, seq int64, eventType, variable, bound string) string {
	id, err := BoundEventID(sessionID, seq, eventType, variable, bound)
	if err != nil {
		panic(err)
	}
	return id
}
