// Package uid provides identifier generation behind small interfaces so
// callers can swap implementations (and fake them in tests).
package uid

// NumberID generates unique numeric identifiers.
type NumberID interface {
	Generate() uint64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
