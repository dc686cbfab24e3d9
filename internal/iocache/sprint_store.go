package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/internal/logger"
	"github.com/huangsam/opendxi/schema"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sprintsTable holds one row per sprint window.
const sprintsTable = "sprints"

// SprintStoreImpl implements contract.SprintStore on top of database/sql.
type SprintStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	connStr    string
	timeout    time.Duration
	now        func() time.Time
}

var _ contract.SprintStore = &SprintStoreImpl{} // Compile-time check

// NewSprintStore opens the store for the given backend and applies pending migrations.
// The none backend returns a store that keeps nothing.
func NewSprintStore(backend schema.DatabaseBackend, connStr string, dbTimeoutSeconds int) (*SprintStoreImpl, error) {
	if dbTimeoutSeconds <= 0 {
		dbTimeoutSeconds = contract.DefaultDBTimeout
	}
	store := &SprintStoreImpl{
		backend: backend,
		timeout: time.Duration(dbTimeoutSeconds) * time.Second,
		now:     time.Now,
	}

	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetDBFilePath()
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		store.driverName = "sqlite"
		store.connStr = sqliteDSN(dbPath, dbTimeoutSeconds)

	case schema.MySQLBackend:
		store.driverName = "mysql"
		store.connStr = connStr

	case schema.PostgreSQLBackend:
		store.driverName = "pgx"
		store.connStr = connStr

	case schema.NoneBackend:
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}

	if err := runMigrations(backend, store.driverName, store.connStr, -1); err != nil {
		return nil, err
	}

	db, err := sql.Open(store.driverName, store.connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// SQLite serializes writers; a single connection keeps busy_timeout effective.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), store.timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}

	store.db = db
	logger.Debug().Str("backend", string(backend)).Msg("Sprint store ready")
	return store, nil
}

// sqliteDSN builds a modernc DSN with WAL and the configured busy timeout.
func sqliteDSN(path string, timeoutSeconds int) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, timeoutSeconds*1000)
}

// Backend returns the configured backend.
func (s *SprintStoreImpl) Backend() schema.DatabaseBackend {
	return s.backend
}

// Get retrieves a record by its date range.
func (s *SprintStoreImpl) Get(ctx context.Context, start, end time.Time) (*schema.SprintRecord, error) {
	if s.db == nil {
		return nil, schema.ErrNotFound
	}
	r := schema.SprintRange{Start: schema.DateOnly(start), End: schema.DateOnly(end)}

	query := fmt.Sprintf(
		"SELECT payload, payload_version, created_at, updated_at FROM %s WHERE start_date = %s AND end_date = %s",
		sprintsTable, s.placeholder(1), s.placeholder(2),
	)
	var (
		payload            string
		version            int
		createdAt, updated int64
	)
	err := s.db.QueryRowContext(ctx, query, r.StartKey(), r.EndKey()).Scan(&payload, &version, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, schema.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sprint %s: %w", r, err)
	}

	if version > schema.PayloadVersion {
		return nil, schema.NewValidationError("payload_version", fmt.Sprintf("unsupported version %d", version))
	}
	agg, err := schema.DecodeAggregate([]byte(payload), r)
	if err != nil {
		return nil, fmt.Errorf("stored sprint %s is invalid: %w", r, err)
	}

	return &schema.SprintRecord{
		Range:          r,
		Payload:        agg,
		PayloadVersion: version,
		CreatedAt:      time.UnixMilli(createdAt).UTC(),
		UpdatedAt:      time.UnixMilli(updated).UTC(),
	}, nil
}

// Insert creates a record. It returns schema.ErrConflict when the range already exists.
func (s *SprintStoreImpl) Insert(ctx context.Context, rec *schema.SprintRecord) error {
	args, err := s.prepare(rec)
	if err != nil || s.db == nil {
		return err
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (start_date, end_date, payload, payload_version, created_at, updated_at) VALUES (%s)",
		sprintsTable, s.placeholders(len(args)),
	)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sprint %s: %w", rec.Range, schema.ErrConflict)
		}
		return fmt.Errorf("failed to insert sprint %s: %w", rec.Range, err)
	}
	return nil
}

// Upsert creates or replaces a record. The stored created_at survives a replace.
func (s *SprintStoreImpl) Upsert(ctx context.Context, rec *schema.SprintRecord) error {
	args, err := s.prepare(rec)
	if err != nil || s.db == nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, s.upsertQuery(), args...); err != nil {
		return fmt.Errorf("failed to upsert sprint %s: %w", rec.Range, err)
	}
	return nil
}

// prepare validates and encodes a record, stamping its timestamps.
func (s *SprintStoreImpl) prepare(rec *schema.SprintRecord) ([]any, error) {
	if rec == nil {
		return nil, schema.NewValidationError("record", "must not be nil")
	}
	rec.Range = schema.SprintRange{Start: schema.DateOnly(rec.Range.Start), End: schema.DateOnly(rec.Range.End)}
	data, err := schema.EncodeAggregate(rec.Payload, rec.Range)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.PayloadVersion == 0 {
		rec.PayloadVersion = schema.PayloadVersion
	}

	return []any{
		rec.Range.StartKey(),
		rec.Range.EndKey(),
		string(data),
		rec.PayloadVersion,
		rec.CreatedAt.UnixMilli(),
		rec.UpdatedAt.UnixMilli(),
	}, nil
}

// List returns the stored ranges, newest start date first.
func (s *SprintStoreImpl) List(ctx context.Context) ([]schema.CachedSprint, error) {
	if s.db == nil {
		return []schema.CachedSprint{}, nil
	}

	query := fmt.Sprintf(
		"SELECT start_date, end_date, updated_at FROM %s ORDER BY start_date DESC, end_date DESC",
		sprintsTable,
	)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []schema.CachedSprint{}
	for rows.Next() {
		var startKey, endKey string
		var updated int64
		if err := rows.Scan(&startKey, &endKey, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan sprint row: %w", err)
		}
		r, err := schema.NewSprintRange(startKey, endKey)
		if err != nil {
			return nil, err
		}
		out = append(out, schema.CachedSprint{Range: r, UpdatedAt: time.UnixMilli(updated).UTC()})
	}
	return out, rows.Err()
}

// Delete removes a record. Deleting a missing range is not an error.
func (s *SprintStoreImpl) Delete(ctx context.Context, start, end time.Time) error {
	if s.db == nil {
		return nil
	}
	r := schema.SprintRange{Start: schema.DateOnly(start), End: schema.DateOnly(end)}
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE start_date = %s AND end_date = %s",
		sprintsTable, s.placeholder(1), s.placeholder(2),
	)
	if _, err := s.db.ExecContext(ctx, query, r.StartKey(), r.EndKey()); err != nil {
		return fmt.Errorf("failed to delete sprint %s: %w", r, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SprintStoreImpl) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// placeholder returns the bind parameter for the i-th argument (1-based).
func (s *SprintStoreImpl) placeholder(i int) string {
	if s.backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// placeholders returns a comma-separated list of n bind parameters.
func (s *SprintStoreImpl) placeholders(n int) string {
	out := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			out += ", "
		}
		out += s.placeholder(i)
	}
	return out
}

// upsertQuery returns the backend-specific statement that keeps created_at on replace.
func (s *SprintStoreImpl) upsertQuery() string {
	insert := fmt.Sprintf(
		"INSERT INTO %s (start_date, end_date, payload, payload_version, created_at, updated_at) VALUES (%s)",
		sprintsTable, s.placeholders(6),
	)
	switch s.backend {
	case schema.MySQLBackend:
		return insert + ` AS new ON DUPLICATE KEY UPDATE
			payload = new.payload,
			payload_version = new.payload_version,
			updated_at = new.updated_at`
	default:
		return insert + ` ON CONFLICT (start_date, end_date) DO UPDATE SET
			payload = excluded.payload,
			payload_version = excluded.payload_version,
			updated_at = excluded.updated_at`
	}
}

// isUniqueViolation reports whether err is a primary key violation from any supported driver.
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
