// Package querytree defines the query tree a user builds in the editor:
// AND/OR groups of typed rules.
//
// The tree is the input of every other stage. The compiler turns it into a
// search DSL fragment, the validator walks it for field-level errors, and
// the compact serializer maps it to and from the URL form.
//
// SEALED INTERFACES:
//
// Node and Dynamic are sealed with unexported marker methods, so type
// switches over them are exhaustive:
//
//	switch n := node.(type) {
//	case *Group:
//	case *Rule:
//	}
//
// DYNAMIC SUB-STATE:
//
// Rules on dynamic field types (managed attributes, field extensions,
// identifiers, classification ranks, relationship presence) choose their
// concrete sub-field per rule. The editor posts that choice as a JSON string
// inside the rule's value; this package decodes it once, at the JSON
// boundary, into a typed Dynamic value on the Rule. Decoding fails soft: a
// malformed sub-state leaves Rule.Dynamic nil and the rule compiles to
// nothing.
package querytree
