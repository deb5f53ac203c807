// Package ast parses JsonLogic-style filter documents into a typed AST.
//
// Every node uses the convention `{ "<op>": [<arg>, ...] }`. A leaf variable
// reference is `{ "var": "<dot-path>" }`; any other JSON scalar or array in
// operand position is a literal.
//
// Supported operators:
//
//	and, or              any number of child nodes
//	!, !!                exactly one child (bare object or one-element array)
//	==, !=, <, <=, >, >= two operands, or three for the range shape
//	in                   [needle, {var}] substring test, or [{var}, [..]] membership
//	startsWith, endsWith [{var}, literal]
//
// A bare {"var": path} in node position is a not-null check; `===` and `!==`
// are accepted as aliases of `==` and `!=`.
//
// The AST is immutable once parsed. Semantic checks (property resolution,
// operator/type compatibility) happen later in the compiler.
package ast
