package list

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSliceHonorsMinimumItems(t *testing.T) {
	// A clock that jumps past the budget on every read still lets the
	// guaranteed items through.
	clock := &stepClock{t: time.Unix(0, 0), step: time.Second}
	s := NewScheduler(3, 50*time.Millisecond, 0, clock.Now)

	var visited []int
	step := func(i, y int) (int, bool) {
		if i >= 10 {
			return 0, false
		}
		visited = append(visited, i)
		return 2, true
	}

	p := s.Begin()
	done, err := s.RunSlice(p, step)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, []int{0, 1, 2}, visited)
	assert.Equal(t, 3, p.Next())
	assert.Equal(t, 6, p.Y())

	for !done {
		done, err = s.RunSlice(p, step)
		require.NoError(t, err)
	}
	assert.True(t, p.Done())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, visited)
	assert.Equal(t, 20, p.Y())

	done, err = s.RunSlice(p, step)
	require.NoError(t, err)
	assert.True(t, done, "finished passes stay finished")
}

func TestRunSliceContinuesWithinBudget(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0)}
	s := NewScheduler(1, time.Millisecond, 0, clock.Now)

	n := 0
	done, err := s.RunSlice(s.Begin(), func(i, y int) (int, bool) {
		if i == 500 {
			return 0, false
		}
		n++
		return 1, true
	})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 500, n, "a frozen clock never exhausts the budget")
}

func TestBeginInvalidatesEarlierPasses(t *testing.T) {
	s := NewScheduler(1, 0, 0, nil)
	first := s.Begin()
	second := s.Begin()
	assert.False(t, s.Current(first))
	assert.True(t, s.Current(second))

	_, err := s.RunSlice(first, func(int, int) (int, bool) { return 1, true })
	require.ErrorIs(t, err, ErrStalePass)

	s.Cancel()
	assert.False(t, s.Current(second))
	assert.False(t, s.Current(nil))
}
