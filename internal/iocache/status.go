package iocache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/opendxi/schema"
)

// GetStatus returns status information about the sprint store.
func (s *SprintStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{Backend: string(s.backend)}
	if s.db == nil {
		return status, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return status, nil
	}
	status.Connected = true

	query := fmt.Sprintf("SELECT COUNT(*), COALESCE(MIN(updated_at), 0), COALESCE(MAX(updated_at), 0) FROM %s", sprintsTable)
	var oldest, newest int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&status.EntryCount, &oldest, &newest); err != nil {
		return status, fmt.Errorf("failed to query store status: %w", err)
	}
	if status.EntryCount > 0 {
		status.OldestUpdate = time.UnixMilli(oldest).UTC()
		status.NewestUpdate = time.UnixMilli(newest).UTC()
	}

	versions, err := s.payloadVersions(ctx)
	if err != nil {
		return status, err
	}
	status.PayloadVersions = versions
	status.SchemaVersion = s.schemaVersion(ctx)
	status.TotalBytes = s.tableSize(ctx, status.EntryCount)
	return status, nil
}

func (s *SprintStoreImpl) payloadVersions(ctx context.Context) ([]int, error) {
	query := fmt.Sprintf("SELECT DISTINCT payload_version FROM %s ORDER BY payload_version", sprintsTable)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query payload versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan payload version: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// schemaVersion reads the golang-migrate bookkeeping table. Zero means unknown.
func (s *SprintStoreImpl) schemaVersion(ctx context.Context) uint {
	var version int64
	query := fmt.Sprintf("SELECT version FROM %s LIMIT 1", migrationsTable)
	if err := s.db.QueryRowContext(ctx, query).Scan(&version); err != nil || version < 0 {
		return 0
	}
	return uint(version)
}

// tableSize reports the on-disk size of the sprints table, estimating when the backend cannot say.
func (s *SprintStoreImpl) tableSize(ctx context.Context, entries int) int64 {
	var size int64
	var err error
	switch s.backend {
	case schema.SQLiteBackend:
		err = s.db.QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").Scan(&size)
	case schema.MySQLBackend:
		var cfg *mysql.Config
		cfg, err = mysql.ParseDSN(s.connStr)
		if err == nil {
			err = s.db.QueryRowContext(ctx,
				"SELECT COALESCE(data_length + index_length, 0) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?",
				cfg.DBName, sprintsTable,
			).Scan(&size)
		}
	case schema.PostgreSQLBackend:
		err = s.db.QueryRowContext(ctx, "SELECT pg_total_relation_size($1)", sprintsTable).Scan(&size)
	}
	if err != nil || size == 0 {
		// Rough estimate: a sprint payload is a few kilobytes of JSON
		return int64(entries) * 4000
	}
	return size
}
