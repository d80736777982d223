package content

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"frogtank.app/internal/sim/tank"
)

// Index is the sqlite file table. The world queries it only on an
// enter_folder command; the watcher keeps it current in between.
type Index struct {
	db *sql.DB
}

// OpenIndex opens or creates the index database. ":memory:" works for
// tests and for servers that do not want a file on disk.
func OpenIndex(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty index path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			path  TEXT PRIMARY KEY,
			name  TEXT NOT NULL,
			type  TEXT NOT NULL,
			size  INTEGER NOT NULL,
			count INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(type);`,
	}
	for _, s := range schema {
		if _, err := db.Exec(s); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &Index{db: db}, nil
}

func (ix *Index) Close() error { return ix.db.Close() }

// Rebuild replaces the whole table with the given scan result.
func (ix *Index) Rebuild(entries []Entry) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO entries(path,name,type,size,count) VALUES(?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.Exec(e.Path, e.Name, string(e.Type), e.SizeBytes, e.Count); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (ix *Index) Upsert(e Entry) error {
	_, err := ix.db.Exec(`INSERT OR REPLACE INTO entries(path,name,type,size,count) VALUES(?,?,?,?,?)`,
		e.Path, e.Name, string(e.Type), e.SizeBytes, e.Count)
	return err
}

// Remove drops an entry and, if it was a folder, everything under it.
func (ix *Index) Remove(path string) error {
	_, err := ix.db.Exec(`DELETE FROM entries WHERE path = ? OR path LIKE ? || '/%'`, path, path)
	return err
}

func (ix *Index) bumpCount(folderPath string, delta int) error {
	_, err := ix.db.Exec(`UPDATE entries SET count = count + ? WHERE path = ?`, delta, folderPath)
	return err
}

// All returns every entry ordered by path.
func (ix *Index) All() ([]Entry, error) {
	rows, err := ix.db.Query(`SELECT path, name, type, size, count FROM entries ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var typ string
		if err := rows.Scan(&e.Path, &e.Name, &typ, &e.SizeBytes, &e.Count); err != nil {
			return nil, err
		}
		e.Type = tank.ObjectType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

// FilesUnder lists the files nested under the named folder, folders
// excluded, ordered by path. Satisfies tank.ContentIndex.
func (ix *Index) FilesUnder(folderName string) ([]tank.FileEntry, error) {
	rows, err := ix.db.Query(
		`SELECT path, name, type, size, count FROM entries
		 WHERE type != 'folder' AND (path LIKE ? || '/%' OR path LIKE '%/' || ? || '/%')
		 ORDER BY path`,
		folderName, folderName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []tank.FileEntry
	for rows.Next() {
		var f tank.FileEntry
		var typ string
		if err := rows.Scan(&f.Path, &f.Name, &typ, &f.SizeBytes, &f.Count); err != nil {
			return nil, err
		}
		f.Type = tank.ObjectType(typ)
		out = append(out, f)
	}
	return out, rows.Err()
}
