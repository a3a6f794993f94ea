// Package harness runs query scenarios end to end and checks the result.
//
// A scenario names a field registry, an input tree (editor JSON or a
// compact URL string), optional catalog data and request settings, and
// the outcome it expects. Running it loads the registry, resolves dynamic
// selections against the catalog, validates the tree, compiles it and
// assembles the search request document.
//
// # Scenario Format
//
//	name: collection_equals
//	description: "Relationship fields compile to a nested query"
//	registry: ../registry.yaml
//	catalog: ../seed.yaml            # optional
//	language: fr                     # optional, validation messages
//	tree:                            # or compact: '{"c":"a","p":[...]}'
//	  type: group
//	  conjunction: AND
//	  children:
//	    - field: collection.attributes.name
//	      operator: equals
//	      value: CNC
//	request:
//	  page_size: 25
//	  groups: [aafc]
//	  sort: ["data.attributes.materialSampleName:desc"]
//	  columns: [data.attributes.materialSampleName]
//	expect:
//	  errors: []                     # validation error IDs, in tree order
//	  compact: '{"c":"a","p":[...]}'
//	  undefined: false               # true when the tree compiles to nothing
//	  dsl_contains: {size: 25}       # subset of the assembled document
//
// Paths are relative to the scenario file.
//
// # Golden Files
//
// RunWithGolden also compares the assembled document against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
