package treelist

import "slices"

// Element describes a surface element at creation.
type Element struct {
	ID      string
	Parent  string
	Text    string
	Classes []string
}

// Surface is the element layer the tree draws on. Unknown ids are ignored.
type Surface interface {
	Create(el Element)
	Remove(id string)
	AddClass(id, class string)
	RemoveClass(id, class string)
	SetText(id, text string)
	SetWidth(id string, width int)
	// Bind routes activation of the element to fn.
	Bind(id string, fn func())
}

type memElement struct {
	Element
	children []string
	width    int
	onClick  func()
}

// MemorySurface is an in-process Surface. The terminal renderer draws from it
// and tests inspect it.
type MemorySurface struct {
	elems map[string]*memElement
	roots []string
}

var _ Surface = (*MemorySurface)(nil)

// NewMemorySurface returns an empty surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{elems: make(map[string]*memElement)}
}

func (s *MemorySurface) Create(el Element) {
	if el.ID == "" {
		return
	}
	if _, exists := s.elems[el.ID]; exists {
		s.Remove(el.ID)
	}
	el.Classes = slices.Clone(el.Classes)
	el.Classes = slices.DeleteFunc(el.Classes, func(c string) bool { return c == "" })
	s.elems[el.ID] = &memElement{Element: el}
	if p, ok := s.elems[el.Parent]; ok {
		p.children = append(p.children, el.ID)
	} else {
		s.roots = append(s.roots, el.ID)
	}
}

// Remove deletes id and everything nested under it.
func (s *MemorySurface) Remove(id string) {
	e, ok := s.elems[id]
	if !ok {
		return
	}
	for _, c := range slices.Clone(e.children) {
		s.Remove(c)
	}
	delete(s.elems, id)
	if p, ok := s.elems[e.Parent]; ok {
		p.children = slices.DeleteFunc(p.children, func(c string) bool { return c == id })
	} else {
		s.roots = slices.DeleteFunc(s.roots, func(c string) bool { return c == id })
	}
}

func (s *MemorySurface) AddClass(id, class string) {
	e, ok := s.elems[id]
	if !ok || class == "" || slices.Contains(e.Classes, class) {
		return
	}
	e.Classes = append(e.Classes, class)
}

func (s *MemorySurface) RemoveClass(id, class string) {
	if e, ok := s.elems[id]; ok {
		e.Classes = slices.DeleteFunc(e.Classes, func(c string) bool { return c == class })
	}
}

func (s *MemorySurface) SetText(id, text string) {
	if e, ok := s.elems[id]; ok {
		e.Text = text
	}
}

func (s *MemorySurface) SetWidth(id string, width int) {
	if e, ok := s.elems[id]; ok {
		e.width = width
	}
}

func (s *MemorySurface) Bind(id string, fn func()) {
	if e, ok := s.elems[id]; ok {
		e.onClick = fn
	}
}

// Click activates id, reporting whether a handler ran.
func (s *MemorySurface) Click(id string) bool {
	e, ok := s.elems[id]
	if !ok || e.onClick == nil {
		return false
	}
	e.onClick()
	return true
}

// Lookup returns a copy of the element.
func (s *MemorySurface) Lookup(id string) (Element, bool) {
	e, ok := s.elems[id]
	if !ok {
		return Element{}, false
	}
	out := e.Element
	out.Classes = slices.Clone(e.Classes)
	return out, true
}

// Exists reports whether id is on the surface.
func (s *MemorySurface) Exists(id string) bool {
	_, ok := s.elems[id]
	return ok
}

// HasClass reports whether id carries class.
func (s *MemorySurface) HasClass(id, class string) bool {
	e, ok := s.elems[id]
	return ok && slices.Contains(e.Classes, class)
}

// Children returns the ids nested directly under id, in creation order.
func (s *MemorySurface) Children(id string) []string {
	if e, ok := s.elems[id]; ok {
		return slices.Clone(e.children)
	}
	return nil
}

// Width returns the width last set on id.
func (s *MemorySurface) Width(id string) int {
	if e, ok := s.elems[id]; ok {
		return e.width
	}
	return 0
}

// Len returns the number of elements.
func (s *MemorySurface) Len() int { return len(s.elems) }
