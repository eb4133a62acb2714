// Package store keeps inspection snapshots in MySQL/MariaDB or SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ufw-inspector/internal/model"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Timestamps are stored as fixed-width UTC text so both drivers sort them the same way.
const timeLayout = "2006-01-02 15:04:05.000000"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ufw_snapshot (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		taken_at VARCHAR(32) NOT NULL,
		host VARCHAR(255) NOT NULL,
		version VARCHAR(64) NULL,
		enabled INTEGER NULL,
		logging VARCHAR(16) NULL,
		defaults TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ufw_snapshot_rule (
		snapshot_id VARCHAR(36) NOT NULL,
		position INTEGER NOT NULL,
		number INTEGER NOT NULL,
		body TEXT NULL,
		error TEXT NULL,
		PRIMARY KEY (snapshot_id, position)
	)`,
}

// Snapshot is one recorded inspection. Version and Logging are empty and
// Enabled is nil when that part of the report could not be read.
type Snapshot struct {
	ID       string
	TakenAt  time.Time
	Host     string
	Version  string
	Enabled  *bool
	Logging  string
	Defaults []model.Default
	Rules    []model.Result[model.RuleEntry]
}

type SnapshotInfo struct {
	ID         string
	TakenAt    time.Time
	Host       string
	Version    string
	RuleCount  int
	ErrorCount int
}

// StoredError is a rule failure read back from the database. Only the
// message survives storage.
type StoredError string

func (e StoredError) Error() string { return string(e) }

type Store struct {
	db *sql.DB
}

// Open connects with driver ("mysql" or "sqlite") and creates the tables
// when they are missing.
func Open(driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// each new connection to ":memory:" would see an empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	slog.Debug("snapshot store opened", "driver", driver)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot stores snap under a new id and returns it. snap.ID is ignored.
func (s *Store) SaveSnapshot(snap Snapshot) (string, error) {
	id := uuid.NewString()
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now()
	}
	defaults, err := json.Marshal(snap.Defaults)
	if err != nil {
		return "", err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var enabled sql.NullInt64
	if snap.Enabled != nil {
		enabled.Valid = true
		if *snap.Enabled {
			enabled.Int64 = 1
		}
	}
	_, err = tx.Exec(
		"INSERT INTO ufw_snapshot (id, taken_at, host, version, enabled, logging, defaults) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, snap.TakenAt.UTC().Format(timeLayout), snap.Host, nullString(snap.Version), enabled, nullString(snap.Logging), string(defaults),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for i, r := range snap.Rules {
		var body, errText sql.NullString
		number := 0
		if r.Err != nil {
			errText = sql.NullString{String: r.Err.Error(), Valid: true}
		} else {
			number = r.Value.Number
			b, err := json.Marshal(r.Value)
			if err != nil {
				return "", err
			}
			body = sql.NullString{String: string(b), Valid: true}
		}
		_, err := tx.Exec(
			"INSERT INTO ufw_snapshot_rule (snapshot_id, position, number, body, error) VALUES (?, ?, ?, ?, ?)",
			id, i, number, body, errText,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert rule %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	slog.Info("snapshot saved", "id", id, "rules", len(snap.Rules))
	return id, nil
}

func (s *Store) LoadSnapshot(id string) (Snapshot, error) {
	snap := Snapshot{ID: id}
	var takenAt, defaults string
	var version, logging sql.NullString
	var enabled sql.NullInt64
	err := s.db.QueryRow(
		"SELECT taken_at, host, version, enabled, logging, defaults FROM ufw_snapshot WHERE id = ?", id,
	).Scan(&takenAt, &snap.Host, &version, &enabled, &logging, &defaults)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err != nil {
		return Snapshot{}, err
	}

	if snap.TakenAt, err = time.Parse(timeLayout, takenAt); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse taken_at: %w", err)
	}
	snap.Version, snap.Logging = version.String, logging.String
	if enabled.Valid {
		on := enabled.Int64 == 1
		snap.Enabled = &on
	}
	if err := json.Unmarshal([]byte(defaults), &snap.Defaults); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode defaults: %w", err)
	}

	rows, err := s.db.Query("SELECT body, error FROM ufw_snapshot_rule WHERE snapshot_id = ? ORDER BY position ASC", id)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var body, errText sql.NullString
		if err := rows.Scan(&body, &errText); err != nil {
			return Snapshot{}, err
		}
		if errText.Valid {
			snap.Rules = append(snap.Rules, model.Fail[model.RuleEntry](StoredError(errText.String)))
			continue
		}
		var entry model.RuleEntry
		if err := json.Unmarshal([]byte(body.String), &entry); err != nil {
			return Snapshot{}, fmt.Errorf("failed to decode rule: %w", err)
		}
		snap.Rules = append(snap.Rules, model.Ok(entry))
	}
	return snap, rows.Err()
}

// ListSnapshots returns every stored snapshot, newest first.
func (s *Store) ListSnapshots() ([]SnapshotInfo, error) {
	rows, err := s.db.Query(`SELECT s.id, s.taken_at, s.host, s.version,
		COUNT(r.position), COUNT(r.error)
		FROM ufw_snapshot s LEFT JOIN ufw_snapshot_rule r ON r.snapshot_id = s.id
		GROUP BY s.id, s.taken_at, s.host, s.version
		ORDER BY s.taken_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		var takenAt string
		var version sql.NullString
		if err := rows.Scan(&info.ID, &takenAt, &info.Host, &version, &info.RuleCount, &info.ErrorCount); err != nil {
			return nil, err
		}
		if info.TakenAt, err = time.Parse(timeLayout, takenAt); err != nil {
			return nil, fmt.Errorf("failed to parse taken_at: %w", err)
		}
		info.Version = version.String
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
