package list

// Pool is the set of idle cells available for reuse. Any idle cell may be
// handed out for any item; no ordering is guaranteed.
type Pool struct {
	idle []Cell
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// Acquire removes and returns an idle cell. The boolean is false when the
// pool is empty and the caller must fall back to its factory.
func (p *Pool) Acquire() (Cell, bool) {
	n := len(p.idle)
	if n == 0 {
		return nil, false
	}
	c := p.idle[n-1]
	p.idle[n-1] = nil
	p.idle = p.idle[:n-1]
	return c, true
}

// Release adds c to the idle set. The caller must have unbound it first.
func (p *Pool) Release(c Cell) {
	if c == nil {
		return
	}
	p.idle = append(p.idle, c)
}

// Len returns the number of idle cells.
func (p *Pool) Len() int {
	return len(p.idle)
}

// Drain empties the pool, passing each idle cell to fn.
func (p *Pool) Drain(fn func(Cell)) {
	idle := p.idle
	p.idle = nil
	for _, c := range idle {
		if fn != nil {
			fn(c)
		}
	}
}
