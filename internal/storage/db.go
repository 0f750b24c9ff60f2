package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"cartscope/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  pageUrl TEXT,
  identifiersJson TEXT NOT NULL,
  namesJson TEXT NOT NULL,
  itemCount INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS line_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  position INTEGER NOT NULL,
  identifier TEXT NOT NULL,
  name TEXT,
  qty REAL,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_line_items_run ON line_items(runId);

CREATE TABLE IF NOT EXISTS removals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER,
  identifier TEXT NOT NULL,
  outcome TEXT NOT NULL,
  detail TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_removals_identifier ON removals(identifier);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun records one extraction run and its line items, returning the run
// id for later removal linkage and export.
func (d *DB) InsertRun(traceID, pageURL string, result internal.ExtractResult) (int64, error) {
	idsJSON, _ := json.Marshal(result.Identifiers)
	namesJSON, _ := json.Marshal(result.Names)

	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
INSERT INTO runs (traceId, pageUrl, identifiersJson, namesJson, itemCount)
VALUES (?, ?, ?, ?, ?)
`, traceID, pageURL, string(idsJSON), string(namesJSON), len(result.Items))
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, item := range result.Items {
		if _, err := tx.Exec(`
INSERT INTO line_items (runId, position, identifier, name, qty)
VALUES (?, ?, ?, ?, ?)
`, runID, i+1, item.Identifier, item.Name, item.Qty); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

func (d *DB) InsertRemoval(runID *int64, rec internal.RemovalRecord) error {
	_, err := d.conn.Exec(`
INSERT INTO removals (runId, identifier, outcome, detail)
VALUES (?, ?, ?, ?)
`, runID, rec.Identifier, string(rec.Outcome), rec.Detail)
	return err
}

func (d *DB) GetRun(id int64) (*internal.RunRow, error) {
	var row internal.RunRow
	var idsJSON, namesJSON string
	err := d.conn.QueryRow(`
SELECT id, traceId, pageUrl, identifiersJson, namesJson, itemCount, createdAt
FROM runs WHERE id = ?
`, id).Scan(&row.ID, &row.TraceID, &row.PageURL, &idsJSON, &namesJSON, &row.ItemCount, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(idsJSON), &row.Identifiers)
	_ = json.Unmarshal([]byte(namesJSON), &row.Names)
	return &row, nil
}

func (d *DB) LatestRunID() (*int64, error) {
	var id int64
	err := d.conn.QueryRow(`SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// GetExportRows joins a run's line items with the latest removal outcome per
// identifier, keeping "hidden" distinguishable from a genuine deletion.
func (d *DB) GetExportRows(runID int64) ([]internal.RunExportRow, error) {
	rows, err := d.conn.Query(`
SELECT
  li.position,
  li.identifier,
  li.name,
  li.qty,
  (SELECT r.outcome FROM removals r WHERE r.identifier = li.identifier AND (r.runId = li.runId OR r.runId IS NULL) ORDER BY r.id DESC LIMIT 1),
  (SELECT r.detail FROM removals r WHERE r.identifier = li.identifier AND (r.runId = li.runId OR r.runId IS NULL) ORDER BY r.id DESC LIMIT 1)
FROM line_items li
WHERE li.runId = ?
ORDER BY li.position ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunExportRow
	for rows.Next() {
		var row internal.RunExportRow
		if err := rows.Scan(&row.Position, &row.Identifier, &row.Name, &row.Qty, &row.Outcome, &row.Detail); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
