package output

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Merge combines the per-worker databases of a multithreaded run into
// <base>.sqlite3 and removes the intermediates. Every writer must be
// closed before merging.
func Merge(base string, workers int) error {
	if workers <= 0 {
		return fmt.Errorf("merge: no worker databases for %s", base)
	}

	sources := make([]string, workers)
	for i := range sources {
		sources[i] = BaseName(base, i, true) + ".sqlite3"
		if _, err := os.Stat(sources[i]); err != nil {
			return fmt.Errorf("merge: %w", err)
		}
	}

	target := base + ".sqlite3"
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("merge: %w", err)
	}

	db, err := sql.Open("sqlite3", target)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	defer db.Close()

	for _, src := range sources {
		if err := copyDatabase(db, src); err != nil {
			return err
		}
	}

	for _, src := range sources {
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("merge: %w", err)
		}
	}

	return nil
}

// copyDatabase attaches one worker file and appends every table it holds
// into the target, creating tables on first sight.
func copyDatabase(db *sql.DB, source string) error {
	if _, err := db.Exec("ATTACH DATABASE ? AS src", source); err != nil {
		return fmt.Errorf("merge: attaching %s: %w", source, err)
	}

	names, err := tableNames(db)
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := copyTable(db, name); err != nil {
			return err
		}
	}

	if _, err := db.Exec("DETACH DATABASE src"); err != nil {
		return fmt.Errorf("merge: detaching %s: %w", source, err)
	}

	return nil
}

func tableNames(db *sql.DB) ([]string, error) {
	rows, err := db.Query(
		"SELECT name FROM src.sqlite_master " +
			"WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	return names, nil
}

func copyTable(db *sql.DB, name string) error {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		name).Scan(&count)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	stmt := fmt.Sprintf("INSERT INTO %q SELECT * FROM src.%q", name, name)
	if count == 0 {
		stmt = fmt.Sprintf("CREATE TABLE %q AS SELECT * FROM src.%q", name, name)
	}

	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("merge: copying table %s: %w", name, err)
	}

	return nil
}
