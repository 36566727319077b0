package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tyinfer/internal/ir"
)

// TraceSnapshot captures what a golden file pins down for one scenario.
type TraceSnapshot struct {
	ScenarioName string
	SessionID    string
	Status       string
	Trace        []TraceEvent
	FixOrder     []string
	Values       map[string]string
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical, which only
// handles primitives, slices and string-keyed maps. Empty event fields are
// omitted; pure is written only when true.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"seq":  ev.Seq,
			"type": ev.Type,
		}
		for key, val := range map[string]string{
			"variable": ev.Variable,
			"kind":     ev.Kind,
			"bound":    ev.Bound,
			"position": ev.Position,
			"value":    ev.Value,
		} {
			if val != "" {
				m[key] = val
			}
		}
		if ev.Pure {
			m["pure"] = true
		}
		trace[i] = m
	}

	values := make(map[string]any, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	fixOrder := s.FixOrder
	if fixOrder == nil {
		fixOrder = []string{}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"session_id":    s.SessionID,
		"status":        s.Status,
		"trace":         trace,
		"fix_order":     fixOrder,
		"values":        values,
	}
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		SessionID:    result.SessionID,
		Status:       result.Status,
		Trace:        result.Trace,
		FixOrder:     result.FixOrder,
		Values:       result.Values,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run. Assertion failures do not
// fail the comparison; check result.Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
