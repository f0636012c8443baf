package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"assistui/config"
)

// Table names a table of the local schema.
type Table string

const (
	TableConversation Table = "conversation"
	TableAssistant    Table = "assistant"
	TableThread       Table = "thread"
)

// Record is a row keyed by column name.
type Record map[string]any

var tableColumns = map[Table][]string{
	TableConversation: {"id", "role", "content", "timestamp"},
	TableAssistant:    {"id", "assistant_id", "name", "instructions", "tools", "model", "vector_store_ids", "timestamp"},
	TableThread:       {"id", "thread_id", "name", "assistant_id", "remote_assistant_id", "created_at"},
}

// Store is the local SQLite database holding the conversation log and the
// assistant and thread caches.
type Store struct {
	db *sql.DB
}

// NewStore opens assistui.db inside dataDir.
func NewStore(dataDir string) (*Store, error) {
	return Open(filepath.Join(dataDir, "assistui.db"))
}

// Open opens a store at any SQLite DSN, including ":memory:".
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each pooled connection to :memory: would see its own empty database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if config.Debug && config.DebugLog != nil {
		config.DebugLog.Printf("[Store] Opened %s", dsn)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS conversation (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			role TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS assistant (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			assistant_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			instructions TEXT NOT NULL DEFAULT '',
			tools TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS thread (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			assistant_id INTEGER REFERENCES assistant(id) ON DELETE SET NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}

	if err := s.migrateSchema(); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}
	return nil
}

// migrateSchema adds columns introduced after the first release.
func (s *Store) migrateSchema() error {
	migrations := []struct {
		table  Table
		column string
		ddl    string
	}{
		{TableAssistant, "vector_store_ids", `ALTER TABLE assistant ADD COLUMN vector_store_ids TEXT NOT NULL DEFAULT ''`},
		{TableThread, "remote_assistant_id", `ALTER TABLE thread ADD COLUMN remote_assistant_id TEXT NOT NULL DEFAULT ''`},
		{TableThread, "created_at", `ALTER TABLE thread ADD COLUMN created_at DATETIME`},
	}

	for _, m := range migrations {
		exists, err := s.columnExists(m.table, m.column)
		if err != nil {
			return fmt.Errorf("failed to check for %s column: %w", m.column, err)
		}
		if exists {
			continue
		}
		if _, err := s.db.Exec(m.ddl); err != nil {
			return fmt.Errorf("failed to add %s column: %w", m.column, err)
		}
	}
	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info
func (s *Store) columnExists(table Table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid          int
			name         string
			dataType     string
			notNull      int
			defaultValue any
			pk           int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}

	return false, rows.Err()
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// checkColumns returns the record's columns in sorted order after verifying
// each one belongs to the table. Column names are interpolated into SQL, so
// nothing outside the known set may pass.
func checkColumns(table Table, rec Record) ([]string, error) {
	known, ok := tableColumns[table]
	if !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	cols := make([]string, 0, len(rec))
	for col := range rec {
		found := false
		for _, k := range known {
			if k == col {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown column %q for table %s", col, table)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}

// Append inserts one row and returns its generated id.
func (s *Store) Append(table Table, rec Record) (int64, error) {
	cols, err := checkColumns(table, rec)
	if err != nil {
		return 0, err
	}
	if len(cols) == 0 {
		return 0, fmt.Errorf("no fields to insert into %s", table)
	}

	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = rec[c]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// QueryAll returns rows matching every field of where, in insertion order.
// A nil or empty where returns the whole table.
func (s *Store) QueryAll(table Table, where Record) ([]Record, error) {
	cols, err := checkColumns(table, where)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(tableColumns[table], ", "), table)
	args := make([]any, 0, len(cols))
	if len(cols) > 0 {
		conds := make([]string, len(cols))
		for i, c := range cols {
			conds[i] = c + " = ?"
			args = append(args, where[c])
		}
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	names := tableColumns[table]
	var out []Record
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}

		rec := make(Record, len(names))
		for i, n := range names {
			rec[n] = values[i]
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

// Update applies a partial update to one row.
func (s *Store) Update(table Table, id int64, fields Record) error {
	cols, err := checkColumns(table, fields)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return nil
	}

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		if c == "id" {
			return fmt.Errorf("cannot update id of %s row", table)
		}
		sets[i] = c + " = ?"
		args = append(args, fields[c])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(sets, ", "))
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s row: %w", table, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s row %d not found", table, id)
	}
	return nil
}

func (s *Store) DeleteByID(table Table, id int64) error {
	if _, ok := tableColumns[table]; !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id); err != nil {
		return fmt.Errorf("failed to delete %s row: %w", table, err)
	}
	return nil
}

func (s *Store) DeleteAll(table Table) error {
	if _, ok := tableColumns[table]; !ok {
		return fmt.Errorf("unknown table %q", table)
	}
	if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	return nil
}
