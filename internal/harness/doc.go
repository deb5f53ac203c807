// Package harness runs filter conformance scenarios.
//
// A scenario names a metadata catalog, a root entity type, optional record
// fixtures and a list of cases. Each case compiles a JsonLogic filter (or a
// quick search) and checks the compiled tree, the query text, the rendered
// parameters, the records the predicate matches, or the error code.
//
// # Scenario Format
//
//	name: person_filters
//	description: "Equality and membership on Person"
//	catalog: catalog.yaml
//	root_type: Person
//	aliases:
//	  Area: AreaLevel1.Name
//	records:
//	  - {FirstName: Bob, Age: 42}
//	  - {FirstName: Ann}
//	cases:
//	  - name: equality
//	    filter: {"==": [{"var": "FirstName"}, "Bob"]}
//	    expect:
//	      query: "(ent.FirstName = :par1)"
//	      params: ["'Bob'"]
//	      matches: [0]
//	  - name: quick search
//	    quicksearch: {text: bob, paths: [FirstName, LastName]}
//	    expect:
//	      tree: 'or(contains(FirstName, "bob"), contains(LastName, "bob"))'
//	  - name: unknown property
//	    filter: {"var": "Ghost"}
//	    expect:
//	      error: UNMAPPED_PATH
//
// The catalog path is relative to the scenario file. A filter may be
// written as a YAML mapping or as a JSON string.
//
// # Golden Snapshots
//
// RunWithGolden snapshots the per-case results as indented JSON under
// testdata/golden so any change to compiled output shows up as a diff.
package harness
