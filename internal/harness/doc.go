// Package harness runs conformance scenarios against the inference engine.
//
// Each scenario names a problem in a set of CUE specs. The harness compiles
// the problem, solves it with a deterministic clock and a fixed session ID,
// records the solution in a fresh in-memory store, and evaluates the
// scenario's assertions against the session replayed from that store. Golden
// files capture the stored trace, so a scenario exercises the compiler, the
// engine and the store together.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: covariant_upper
//	description: "T <: List<R>, R <: Int resolves T to List<Int>"
//	specs:
//	  - ../specs/problems.cue
//	problem: covariantUpper
//	assertions:
//	  - type: bound_present
//	    variable: T
//	    kind: upper
//	    bound: "List<Int>"
//	  - type: value
//	    variable: T
//	    value: "List<Int>"
//
// Unknown fields are rejected so typos fail loudly.
//
// # Assertion Types
//
//   - bound_present: the variable received a bound of the given kind and type
//   - bound_absent: the variable never received that bound
//   - value: the variable was committed to the given type
//   - unresolved: the variable was fixed without a value
//   - fix_order: fixation started on variables in exactly this order
//   - mismatch: a relation failed (any, or the given one)
//
// Type expressions in assertions are parsed and re-rendered before
// comparison, so "Pair<Int,String>" matches "Pair<Int, String>".
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/covariant_upper.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
