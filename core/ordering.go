package core

// Ordering is a single sort key, e.g. "-created_at" -> {Field: "created_at", Ascending: false}.
type Ordering struct {
	Field     string
	Ascending bool
}
