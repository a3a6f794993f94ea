// Package dsl provides the JSON object model for Elasticsearch query DSL
// fragments produced by the query compiler.
//
// This package contains the fragment type, clause builders and the
// deterministic marshaler only. It imports nothing internal, so every other
// package can depend on it.
//
// Key design constraints:
//   - A fragment is an opaque JSON object; fragments compose only by nesting
//     and concatenation (Bool, Nested).
//   - Clause lists are always []Object so fragments built in different places
//     compare equal.
//   - Builders never return an empty fragment. A missing clause is nil, and
//     callers treat nil as "no clause" (it is never serialized as {}).
//   - Marshal output is deterministic: sorted NFC keys, operands unchanged,
//     no HTML escaping.
package dsl
