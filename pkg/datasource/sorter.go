package datasource

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/oakwood-commons/kvlist/internal/cel"
)

// Sorter orders two items, returning a negative number when a sorts first.
type Sorter func(a, b Item) int

// ByField orders items by the value stored under field.
func ByField(field string) Sorter {
	return func(a, b Item) int {
		return CompareValues(a[field], b[field])
	}
}

// Reverse inverts s.
func Reverse(s Sorter) Sorter {
	return func(a, b Item) int { return s(b, a) }
}

// NewExprSorter builds a sorter from a CEL key expression evaluated against
// each item (bound to `_`), e.g. `_.priority` or `_.title.lowerAscii()`. A
// leading '-' sorts descending. Items whose key fails to evaluate sort first.
func NewExprSorter(expr string) (Sorter, error) {
	expr = strings.TrimSpace(expr)
	desc := false
	if strings.HasPrefix(expr, "-") {
		desc = true
		expr = strings.TrimSpace(expr[1:])
	}
	if expr == "" {
		return nil, fmt.Errorf("empty sort expression")
	}
	prg, err := cel.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("sort expression %q: %w", expr, err)
	}
	keyOf := func(item Item) interface{} {
		v, err := prg.Eval(item)
		if err != nil {
			return nil
		}
		return v
	}
	s := Sorter(func(a, b Item) int {
		return CompareValues(keyOf(a), keyOf(b))
	})
	if desc {
		s = Reverse(s)
	}
	return s, nil
}

// CompareValues orders decoded scalar values: nil first, then booleans,
// numbers, and strings. Values of other types compare by their printed form.
func CompareValues(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case 0:
		return 0
	case 1:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case 2:
		return cmp.Compare(toFloat(a), toFloat(b))
	case 3:
		return strings.Compare(a.(string), b.(string))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func rank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
