package limiter

import (
	"fmt"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

// Config holds the record-limiting parameters.
type Config struct {
	Limit  int // Show only this many records (0 = unlimited)
	Offset int // Skip the first N records (0 = no skip)
	Tail   int // Show only the last N records (0 = disabled); mutually exclusive with Limit
}

// Validate checks for conflicting flag combinations and returns an error if invalid.
// Rules:
// - Limit and Tail are mutually exclusive
// - If Tail is set, Offset is ignored
// - All numeric values must be non-negative
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return fmt.Errorf("--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive returns true if any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Window returns the half-open range of n records that survive limiting.
func (c Config) Window(n int) (start, end int) {
	if n <= 0 {
		return 0, 0
	}
	if c.Tail > 0 {
		return max(n-c.Tail, 0), n
	}
	start = min(max(c.Offset, 0), n)
	end = n
	if c.Limit > 0 {
		end = min(start+c.Limit, n)
	}
	return start, end
}

// Apply returns the limited subset of records. The result shares the
// backing array with records.
func (c Config) Apply(records []datasource.Item) []datasource.Item {
	if !c.IsActive() {
		return records
	}
	start, end := c.Window(len(records))
	return records[start:end]
}

// ApplySource returns the records of src in index order, limited.
func (c Config) ApplySource(src datasource.Source) []datasource.Item {
	start, end := c.Window(src.Len())
	if !c.IsActive() {
		start, end = 0, src.Len()
	}
	out := make([]datasource.Item, 0, end-start)
	for i := start; i < end; i++ {
		if item, ok := src.ItemAt(i); ok {
			out = append(out, item)
		}
	}
	return out
}
