// Package queryir provides the target-agnostic intermediate representation
// produced by the filter compiler and consumed by its emitters.
//
// ARCHITECTURE:
//
// The IR sits between the type-dispatch builder and the back ends:
//
//	[filter AST] → [type dispatch] → [queryir] → [predicate emitter]
//	                                            → [query-text emitter]
//
// One filter comparison may expand into several IR comparisons. A temporal
// equality becomes an And of gte/lte bounds, a category membership test
// becomes an Or of eq comparisons. Both emitters see exactly the same tree,
// so the in-memory predicate and the pushed-down query text always agree.
//
// SEALED INTERFACE:
//
// Node is sealed with a marker method. Only Comparison, And, Or, Not and
// Const implement it, and emitters switch over them exhaustively:
//
//	switch n := node.(type) {
//	case Comparison:
//	case And:
//	case Or:
//	case Not:
//	case Const:
//	default:
//	    // impossible for trees built by this module
//	}
//
// VALUES:
//
// Comparison values are already coerced to the property's storage type:
//
//	Text             string
//	Numeric          int32, int64, float32, float64, *apd.Decimal
//	Boolean          bool
//	Date, DateTime   time.Time (UTC)
//	Time             time.Duration since midnight
//	Category         int64 code
//	BitFlagSet       int64 flag
//	EntityReference  uuid.UUID, int64 or string id
//
// isNull and isNotNull carry no value. Every other operator carries exactly
// one, and each one becomes exactly one query parameter.
package queryir
