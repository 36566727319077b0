// Package engine implements the tyinfer constraint system.
//
// A System collects bounds on the type variables of one inference attempt
// and derives new bounds from them (incorporation) until every variable can
// be committed to a final type (fixation).
//
// ARCHITECTURE:
//
// Bounds:
// Every variable owns a TypeBounds: an append-only list of LOWER, UPPER and
// EXACT bounds. A bound is stored at most once (equality ignores position and
// purity) and never when its type mentions its own variable.
//
// Incorporation:
// Storing a bound immediately incorporates it:
//  1. Pairwise with the variable's existing bounds (emits constraints)
//  2. Into the dependent bounds of other variables (substitution)
//  3. Onto the other variable when the bound is variable-to-variable
//  4. With the known bounds of variables nested in the new bound
//
// Every undetermined path is a silent no-op. The engine never derives an
// unsound bound; it may fail to derive one until more information arrives.
//
// Fixation:
// Fixing a variable first fixes every variable its bounds mention, then
// commits the value derived from its pure bounds and feeds it back as an
// EXACT bound so that dependents receive the substitution.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Trace events are stamped with a monotonic seq from Clock.Next().
// Wall-clock time is never used for ordering.
//
// Deterministic Iteration:
// Variables are visited in creation order; bound lists are iterated over
// snapshots; maps are never ranged over. Replaying the same constraints
// yields the same bounds, the same fixation order and the same trace.
//
// A System is single-threaded and owned by exactly one inference attempt.
package engine
