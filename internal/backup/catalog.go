package backup

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Catalog is an optional, rebuildable local index over a backup
// directory's sidecars, kept only for fast list/restore-by-id queries
// over a large backup store without a full directory re-scan. The
// flat directory plus ".meta" sidecars remain authoritative; a lost or
// stale catalog is always recoverable by calling Rebuild.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens (creating if needed) a sqlite-backed catalog at path.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open backup catalog: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS backups (
	backup_id     TEXT PRIMARY KEY,
	original_path TEXT NOT NULL,
	backup_path   TEXT NOT NULL UNIQUE,
	kind          INTEGER NOT NULL,
	timestamp     TEXT NOT NULL,
	original_size INTEGER NOT NULL,
	backup_size   INTEGER NOT NULL,
	checksum      TEXT NOT NULL,
	description   TEXT NOT NULL,
	app_version   TEXT NOT NULL,
	is_valid      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backups_original ON backups(original_path);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create backup catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the catalog's database handle.
func (c *Catalog) Close() error { return c.db.Close() }

// Index records rec in the catalog, replacing any prior entry for the
// same backup_id.
func (c *Catalog) Index(rec *Record) error {
	_, err := c.db.Exec(`
INSERT INTO backups (backup_id, original_path, backup_path, kind, timestamp, original_size, backup_size, checksum, description, app_version, is_valid)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(backup_id) DO UPDATE SET
	original_path=excluded.original_path, backup_path=excluded.backup_path, kind=excluded.kind,
	timestamp=excluded.timestamp, original_size=excluded.original_size, backup_size=excluded.backup_size,
	checksum=excluded.checksum, description=excluded.description, app_version=excluded.app_version,
	is_valid=excluded.is_valid`,
		rec.BackupID, rec.OriginalPath, rec.BackupPath, int(rec.Kind), rec.Timestamp.UTC().Format(time.RFC3339),
		rec.OriginalSize, rec.BackupSize, rec.Checksum, rec.Description, rec.AppVersion, boolToInt(rec.IsValid))
	return err
}

// ByID looks up a backup by its BackupID, the one lookup the flat
// sidecar store cannot answer on its own (see list.go's ByID note).
func (c *Catalog) ByID(id string) (*Record, error) {
	row := c.db.QueryRow(`SELECT backup_id, original_path, backup_path, kind, timestamp, original_size, backup_size, checksum, description, app_version, is_valid FROM backups WHERE backup_id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, newErr(KindNoBackupFound, "no catalogued backup with id %s", id)
		}
		return nil, err
	}
	return rec, nil
}

// ForOriginal returns the catalogued backups for originalPath, newest
// first.
func (c *Catalog) ForOriginal(originalPath string) ([]*Record, error) {
	rows, err := c.db.Query(`SELECT backup_id, original_path, backup_path, kind, timestamp, original_size, backup_size, checksum, description, app_version, is_valid FROM backups WHERE original_path = ? ORDER BY timestamp DESC`, originalPath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Rebuild clears and repopulates the catalog from a fresh scan of dir,
// recovering from the case where the catalog was lost, deleted, or
// fell out of sync with the flat directory.
func (c *Catalog) Rebuild(dir string) error {
	if _, err := c.db.Exec(`DELETE FROM backups`); err != nil {
		return err
	}
	records, err := List(dir)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.BackupID == "" {
			continue // no catalog entry possible without an id (pre-catalog backup)
		}
		if err := c.Index(rec); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var kind int
	var ts string
	var isValid int
	if err := row.Scan(&rec.BackupID, &rec.OriginalPath, &rec.BackupPath, &kind, &ts,
		&rec.OriginalSize, &rec.BackupSize, &rec.Checksum, &rec.Description, &rec.AppVersion, &isValid); err != nil {
		return nil, err
	}
	rec.Kind = Kind(kind)
	rec.IsValid = isValid != 0
	if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
		rec.Timestamp = parsed
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
