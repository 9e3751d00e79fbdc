package engine

// Segment is one step of a method chain rooted at the db binding: either a
// bare property access (users) or a call with literal arguments (find({})).
type Segment struct {
	Name string
	Call bool
	Args []any
}

// Chain is the parsed form of a script: the db root followed by segments.
// Argument values are relaxed-JSON literals parsed into ordered bson.D
// documents, bson.A arrays, strings, int64/float64 numbers, bools and nil.
type Chain struct {
	Segments []Segment
}
