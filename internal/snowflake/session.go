// Package snowflake owns the connection to the data platform: configuration,
// the long-lived session, and the row shape that introspection commands return.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/snowflakedb/gosnowflake"
)

// Session is the process-wide query handle. It is constructed once at
// startup, injected into every consumer, and closed exactly once on
// shutdown. The underlying pool is lazy: no connection is established
// until the first query runs.
type Session struct {
	db *sql.DB
}

// Open builds a session from the given connection configuration.
func Open(cfg Config) (*Session, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, fmt.Errorf("building connection string: %w", err)
	}
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening snowflake connection: %w", err)
	}
	return &Session{db: db}, nil
}

// OpenDB wraps an existing database handle. Used by tests to substitute
// a mock driver.
func OpenDB(db *sql.DB) *Session {
	return &Session{db: db}
}

// Execute runs one introspection command and materializes every result row.
// Driver []byte values are converted to strings so consumers only see
// string, numeric, boolean or nil values.
func (s *Session) Execute(ctx context.Context, query string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("executing %q: %w", query, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns for %q: %w", query, err)
	}

	var out []Row
	for rows.Next() {
		raw := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row for %q: %w", query, err)
		}
		values := make([]any, len(columns))
		for i, v := range raw {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			} else {
				values[i] = v
			}
		}
		out = append(out, NewRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows for %q: %w", query, err)
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (s *Session) Close() error {
	return s.db.Close()
}
