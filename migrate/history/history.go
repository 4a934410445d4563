// Package history records applied migrations in the engine's bookkeeping table.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/satishbabariya/schema-engine/internal/version"
	"github.com/satishbabariya/schema-engine/migrate/connector"
	"github.com/satishbabariya/schema-engine/migrate/schema"
)

// MigrationRecord represents a migration in the history
type MigrationRecord struct {
	ID            string
	Name          string
	AppliedAt     time.Time
	ExecutionTime int64 // milliseconds
	// Checksum is the sha256 of the executed SQL.
	Checksum      string
	Steps         int
	EngineVersion string
	// Fingerprint is the xxh3 hash of SchemaSnapshot.
	Fingerprint string
	// SchemaSnapshot is the JSON of the schema after this migration was applied.
	SchemaSnapshot string
}

// Manager manages migration history
type Manager struct {
	db   *sql.DB
	conn *connector.Descriptor
	now  func() time.Time
}

// NewManager creates a new migration history manager
func NewManager(db *sql.DB, conn *connector.Descriptor) *Manager {
	return &Manager{
		db:   db,
		conn: conn,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// InitTable creates the migrations history table
func (m *Manager) InitTable(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, m.getMigrationTableSQL()); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// Record records a migration execution. A missing ID, timestamp or engine version is filled in.
func (m *Manager) Record(ctx context.Context, record *MigrationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.AppliedAt.IsZero() {
		record.AppliedAt = m.now()
	}
	if record.EngineVersion == "" {
		record.EngineVersion = version.Version
	}

	_, err := m.db.ExecContext(ctx, m.getInsertSQL(),
		record.ID,
		record.Name,
		record.AppliedAt,
		record.Checksum,
		record.ExecutionTime,
		record.Steps,
		record.EngineVersion,
		record.Fingerprint,
		record.SchemaSnapshot,
	)
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// RecordWithSchema records a migration execution with schema snapshot
func (m *Manager) RecordWithSchema(ctx context.Context, record *MigrationRecord, model *schema.SchemaModel) error {
	if model != nil {
		snapshot, fingerprint, err := SerializeSchema(model)
		if err != nil {
			return err
		}
		record.SchemaSnapshot = snapshot
		record.Fingerprint = fingerprint
	}
	return m.Record(ctx, record)
}

// GetAll returns all migration records, oldest first
func (m *Manager) GetAll(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := m.db.QueryContext(ctx, m.getSelectAllSQL())
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var record MigrationRecord
		var engineVersion, fingerprint, schemaSnapshot sql.NullString
		err := rows.Scan(
			&record.ID,
			&record.Name,
			&record.AppliedAt,
			&record.Checksum,
			&record.ExecutionTime,
			&record.Steps,
			&engineVersion,
			&fingerprint,
			&schemaSnapshot,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		record.EngineVersion = engineVersion.String
		record.Fingerprint = fingerprint.String
		record.SchemaSnapshot = schemaSnapshot.String
		records = append(records, record)
	}
	return records, rows.Err()
}

// Latest returns the most recent record, or nil when nothing was recorded yet
func (m *Manager) Latest(ctx context.Context) (*MigrationRecord, error) {
	records, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[len(records)-1], nil
}

// GetSchemaSnapshot retrieves the schema snapshot of a migration by ID
func (m *Manager) GetSchemaSnapshot(ctx context.Context, id string) (*schema.SchemaModel, error) {
	var snapshot sql.NullString
	err := m.db.QueryRowContext(ctx, m.getSelectSchemaSnapshotSQL(), id).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("migration %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query schema snapshot: %w", err)
	}
	if !snapshot.Valid || snapshot.String == "" {
		return nil, nil
	}
	return DeserializeSchema(snapshot.String)
}

// CalculateChecksum calculates a checksum for the statements of a migration
func CalculateChecksum(statements []string) string {
	hash := sha256.Sum256([]byte(strings.Join(statements, ";\n")))
	return hex.EncodeToString(hash[:])
}

// placeholder returns the n-th bind parameter in the connector's syntax.
func (m *Manager) placeholder(n int) string {
	switch m.conn.Name {
	case "postgres", "cockroachdb":
		return fmt.Sprintf("$%d", n)
	case "sqlserver":
		return fmt.Sprintf("@p%d", n)
	default:
		return "?"
	}
}

// getMigrationTableSQL returns SQL to create migration history table
func (m *Manager) getMigrationTableSQL() string {
	switch m.conn.Name {
	case "postgres", "cockroachdb":
		return `
			CREATE TABLE IF NOT EXISTS ` + connector.HistoryTable + ` (
				id VARCHAR(36) PRIMARY KEY,
				migration_name VARCHAR(255) NOT NULL,
				applied_at TIMESTAMPTZ NOT NULL,
				checksum VARCHAR(64) NOT NULL,
				execution_time BIGINT NOT NULL DEFAULT 0,
				steps INTEGER NOT NULL DEFAULT 0,
				engine_version VARCHAR(64),
				fingerprint VARCHAR(16),
				schema_snapshot TEXT
			)
		`
	case "mysql":
		return `
			CREATE TABLE IF NOT EXISTS ` + connector.HistoryTable + ` (
				id VARCHAR(36) PRIMARY KEY,
				migration_name VARCHAR(255) NOT NULL,
				applied_at DATETIME(3) NOT NULL,
				checksum VARCHAR(64) NOT NULL,
				execution_time BIGINT NOT NULL DEFAULT 0,
				steps INT NOT NULL DEFAULT 0,
				engine_version VARCHAR(64),
				fingerprint VARCHAR(16),
				schema_snapshot LONGTEXT
			)
		`
	case "sqlserver":
		return `
			IF OBJECT_ID(N'` + connector.HistoryTable + `', N'U') IS NULL
			CREATE TABLE ` + connector.HistoryTable + ` (
				id NVARCHAR(36) PRIMARY KEY,
				migration_name NVARCHAR(255) NOT NULL,
				applied_at DATETIME2 NOT NULL,
				checksum NVARCHAR(64) NOT NULL,
				execution_time BIGINT NOT NULL DEFAULT 0,
				steps INT NOT NULL DEFAULT 0,
				engine_version NVARCHAR(64),
				fingerprint NVARCHAR(16),
				schema_snapshot NVARCHAR(MAX)
			)
		`
	default:
		return `
			CREATE TABLE IF NOT EXISTS ` + connector.HistoryTable + ` (
				id TEXT PRIMARY KEY,
				migration_name TEXT NOT NULL,
				applied_at DATETIME NOT NULL,
				checksum TEXT NOT NULL,
				execution_time INTEGER NOT NULL DEFAULT 0,
				steps INTEGER NOT NULL DEFAULT 0,
				engine_version TEXT,
				fingerprint TEXT,
				schema_snapshot TEXT
			)
		`
	}
}

// getInsertSQL returns SQL to insert a migration record
func (m *Manager) getInsertSQL() string {
	params := make([]string, 9)
	for i := range params {
		params[i] = m.placeholder(i + 1)
	}
	return `
		INSERT INTO ` + connector.HistoryTable + ` (id, migration_name, applied_at, checksum, execution_time, steps, engine_version, fingerprint, schema_snapshot)
		VALUES (` + strings.Join(params, ", ") + `)
	`
}

// getSelectAllSQL returns SQL to select all migrations
func (m *Manager) getSelectAllSQL() string {
	return `
		SELECT id, migration_name, applied_at, checksum, execution_time, steps, engine_version, fingerprint, schema_snapshot
		FROM ` + connector.HistoryTable + `
		ORDER BY applied_at ASC, migration_name ASC
	`
}

// getSelectSchemaSnapshotSQL returns SQL to select schema snapshot for a migration
func (m *Manager) getSelectSchemaSnapshotSQL() string {
	return `
		SELECT schema_snapshot
		FROM ` + connector.HistoryTable + `
		WHERE id = ` + m.placeholder(1)
}
