// Package ir provides the type model and problem representation for tyinfer.
//
// This package contains the collaborator types the inference engine needs:
// type variables, constructors with declaration-site variance, projections,
// substitution, nested-argument enumeration and structural subtyping. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the type model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Types are immutable once built; every operation returns a new value
//   - Type variables compare by identity (pointer), never by name
//   - Constructors compare by identity; a Universe owns them
//   - Canonical JSON (RFC 8785) is the only serialization used for hashing
package ir
