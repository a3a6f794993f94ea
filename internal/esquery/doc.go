// Package esquery compiles query trees into Elasticsearch query DSL
// fragments.
//
// ARCHITECTURE:
//
//	[querytree.Node] → Compiler.Compile → [dsl.Object or nil]
//	                        │
//	                        ├─ primitive transformers: text, number, date,
//	                        │  boolean, uuid, vocabulary
//	                        └─ dynamic transformers: classification, managed
//	                           attribute, field extension, identifier,
//	                           relationship presence
//
// A nil result means "no clause". Rules without a field, rules whose field
// is not registered, blank operands and malformed dynamic sub-state all
// compile to nil, and a group whose children all compile to nil is itself
// nil. The compiler never emits an empty bool, which would match every
// document.
//
// Every primitive transformer shares one operator shape:
//
//	empty / notEmpty     must_not exists / exists
//	notEquals            should[ must_not term, must_not exists ]
//	in / notIn           terms / must_not terms over a trimmed comma list
//	between              one inclusive range from a {low, high} operand
//	greaterThan...       range gt / gte / lt / lte
//	anything else        exact term
//
// Fields inside an included relationship document are wrapped as
//
//	{nested: {path: "included", query: {bool: {must: [core, {term: {"included.type": parentType}}]}}}}
//
// so a clause cannot match a sibling relationship of another type.
package esquery
