package list

import "time"

// Clock returns the current time; tests inject fake clocks.
type Clock func() time.Time

// StepFunc lays out the item at index with its top at y. It returns the
// laid-out height, or ok=false when there is no item at index.
type StepFunc func(index, y int) (height int, ok bool)

// Scheduler slices a sequential layout walk into bounded chunks. A slice
// keeps going while fewer than MinItems items were processed or the slice is
// still inside Budget, whichever allows more work.
type Scheduler struct {
	MinItems int
	Budget   time.Duration
	Delay    time.Duration

	now   Clock
	token uint64
}

// Pass is the resumable state of one layout walk.
type Pass struct {
	token uint64
	next  int
	y     int
	done  bool
}

// Next is the index the pass resumes at.
func (p *Pass) Next() int { return p.next }

// Y is the accumulated content height so far.
func (p *Pass) Y() int { return p.y }

// Done reports whether the walk reached the end of the data.
func (p *Pass) Done() bool { return p.done }

// NewScheduler returns a scheduler using now, or time.Now when nil.
func NewScheduler(minItems int, budget, delay time.Duration, now Clock) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{MinItems: minItems, Budget: budget, Delay: delay, now: now}
}

// Begin starts a new pass, invalidating every earlier one.
func (s *Scheduler) Begin() *Pass {
	s.token++
	return &Pass{token: s.token}
}

// Cancel invalidates the current pass without starting another.
func (s *Scheduler) Cancel() {
	s.token++
}

// Current reports whether p is the latest pass.
func (s *Scheduler) Current(p *Pass) bool {
	return p != nil && p.token == s.token
}

// RunSlice advances p by one slice. It returns done=true once step reports
// the end of the data, and ErrStalePass when p was superseded.
func (s *Scheduler) RunSlice(p *Pass, step StepFunc) (bool, error) {
	if !s.Current(p) {
		return false, ErrStalePass
	}
	if p.done {
		return true, nil
	}
	start := s.now()
	for n := 0; n < s.MinItems || s.now().Sub(start) < s.Budget; n++ {
		h, ok := step(p.next, p.y)
		if !ok {
			p.done = true
			return true, nil
		}
		p.next++
		p.y += h
	}
	return false, nil
}
