package pkguid

// StringID generates unique string identifiers.
type StringID interface {
	// Generate generates a unique identifier as a string.
	Generate() string
}

// NumberID generates unique numeric identifiers. Later calls return larger
// values.
type NumberID interface {
	Generate() int64
}
