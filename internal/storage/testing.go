package storage

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// OpenInMemory opens a single-connection in-memory database with the full
// schema applied. Used by tests; the migration tool cannot target a
// connection-scoped in-memory database, so the embedded up migrations are
// executed directly.
func OpenInMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	// Each pooled connection would get its own empty database.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var ups []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			ups = append(ups, entry.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		script, err := fs.ReadFile(migrationsFS, "migrations/"+name)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := conn.Exec(string(script)); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	return &DB{conn: conn}, nil
}
