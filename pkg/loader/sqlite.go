package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/oakwood-commons/kvlist/pkg/datasource"
)

// LoadSQLite runs query against the sqlite database at path and returns one
// record per row, keyed by column name. Rows lacking opts.Key get their row
// number as id. Children flattening does not apply to rows.
func LoadSQLite(ctx context.Context, path, query string, opts Options) ([]datasource.Item, error) {
	opts = opts.withDefaults()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", path, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []datasource.Item
	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out), err)
		}
		rec := make(datasource.Item, len(cols))
		for i, c := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[c] = v
		}
		if _, ok := datasource.IDOf(rec, opts.Key); !ok {
			rec[opts.Key] = strconv.Itoa(len(out))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
