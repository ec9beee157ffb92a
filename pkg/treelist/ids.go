package treelist

import "strconv"

// IDGenerator hands out element ids. Each TreeList owns one so ids never leak
// between instances.
type IDGenerator interface {
	Next() string
}

// Sequence generates prefix0, prefix1, ...
type Sequence struct {
	prefix string
	n      int
}

// NewSequence returns a generator starting at prefix0.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// Next returns the next id.
func (s *Sequence) Next() string {
	id := s.prefix + strconv.Itoa(s.n)
	s.n++
	return id
}

// DefaultPrefix is the element id prefix for the given instance number.
func DefaultPrefix(instance int) string {
	return "menuItem" + strconv.Itoa(instance) + "_"
}
