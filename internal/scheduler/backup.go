package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"maremio_backend/internal/adapters/storage"
	"maremio_backend/platform/logger"
)

const backupVersion = "1.0"

// BackupTables are dumped in this order.
var BackupTables = []string{"orders", "order_items", "customers", "products", "categories", "restaurant_tables", "reservations"}

var backupKeyPattern = regexp.MustCompile(`^backup-(\d{4}-\d{2}-\d{2})\.json$`)

// TableDumper reads every row of a table as JSON objects.
type TableDumper interface {
	DumpTable(ctx context.Context, table string) ([]json.RawMessage, error)
}

// BackupStore is the object storage used for backups.
type BackupStore interface {
	PutObject(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error)
	DeleteObject(ctx context.Context, bucket, fileKey string) error
}

// BackupDocument is the stored backup file.
type BackupDocument struct {
	Timestamp    string                       `json:"timestamp"`
	Version      string                       `json:"version"`
	Tables       map[string][]json.RawMessage `json:"tables"`
	Stats        map[string]int               `json:"stats"`
	TotalRecords int                          `json:"totalRecords"`
}

// BackupResult summarizes a run.
type BackupResult struct {
	Key          string
	Stats        map[string]int
	TotalRecords int
	Deleted      []string
}

// Backup writes a daily JSON snapshot and prunes old ones.
type Backup struct {
	dumper    TableDumper
	store     BackupStore
	bucket    string
	retention time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewBackup(dumper TableDumper, store BackupStore, bucket string, retention time.Duration, log *logger.Logger) *Backup {
	return &Backup{
		dumper:    dumper,
		store:     store,
		bucket:    bucket,
		retention: retention,
		log:       log,
		now:       time.Now,
	}
}

// BackupKey names the backup object for date (yyyy-mm-dd).
func BackupKey(date string) string {
	return "backup-" + date + ".json"
}

// Run dumps all tables into one object. A table that cannot be read is
// stored empty and logged; the upload failing fails the run. Pruning
// errors are logged only.
func (b *Backup) Run(ctx context.Context, date string) (BackupResult, error) {
	now := b.now()
	if date == "" {
		date = now.Format(time.DateOnly)
	}

	doc := BackupDocument{
		Timestamp: now.UTC().Format(time.RFC3339),
		Version:   backupVersion,
		Tables:    make(map[string][]json.RawMessage, len(BackupTables)),
		Stats:     make(map[string]int, len(BackupTables)),
	}
	for _, table := range BackupTables {
		rows, err := b.dumper.DumpTable(ctx, table)
		if err != nil {
			b.log.Error("backup table dump failed", "table", table, "error", err)
			rows = []json.RawMessage{}
		}
		doc.Tables[table] = rows
		doc.Stats[table] = len(rows)
		doc.TotalRecords += len(rows)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return BackupResult{}, fmt.Errorf("encode backup: %w", err)
	}

	key := BackupKey(date)
	if err := b.store.PutObject(ctx, b.bucket, key, "application/json", bytes.NewReader(data), int64(len(data))); err != nil {
		return BackupResult{}, fmt.Errorf("upload backup: %w", err)
	}
	b.log.Info("backup uploaded", "key", key, "records", doc.TotalRecords)

	deleted, err := b.prune(ctx, now)
	if err != nil {
		b.log.Error("backup pruning failed", "error", err)
	}

	return BackupResult{Key: key, Stats: doc.Stats, TotalRecords: doc.TotalRecords, Deleted: deleted}, nil
}

// prune deletes backups whose file date is before now - retention.
func (b *Backup) prune(ctx context.Context, now time.Time) ([]string, error) {
	if b.retention <= 0 {
		return nil, nil
	}
	objects, err := b.store.ListObjects(ctx, b.bucket, "backup-")
	if err != nil {
		return nil, err
	}

	cutoff := now.Add(-b.retention).Format(time.DateOnly)
	var (
		deleted []string
		errs    []error
	)
	for _, obj := range objects {
		m := backupKeyPattern.FindStringSubmatch(obj.Key)
		if m == nil || m[1] >= cutoff {
			continue
		}
		if err := b.store.DeleteObject(ctx, b.bucket, obj.Key); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted = append(deleted, obj.Key)
	}
	if len(deleted) > 0 {
		b.log.Info("old backups deleted", "count", len(deleted))
	}
	return deleted, errors.Join(errs...)
}

// PgxDumper dumps tables through row_to_json.
type PgxDumper struct {
	pool *pgxpool.Pool
}

func NewPgxDumper(pool *pgxpool.Pool) *PgxDumper {
	return &PgxDumper{pool: pool}
}

func (d *PgxDumper) DumpTable(ctx context.Context, table string) ([]json.RawMessage, error) {
	if !isBackupTable(table) {
		return nil, fmt.Errorf("dump table: %q is not a backup table", table)
	}

	// Table names come from BackupTables only.
	rows, err := d.pool.Query(ctx, fmt.Sprintf(`SELECT row_to_json(t)::text FROM %s t`, table))
	if err != nil {
		return nil, fmt.Errorf("dump table %s: %w", table, err)
	}
	defer rows.Close()

	out := make([]json.RawMessage, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("dump table %s: scan: %w", table, err)
		}
		out = append(out, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dump table %s: %w", table, err)
	}
	return out, nil
}

func isBackupTable(table string) bool {
	for _, t := range BackupTables {
		if t == table {
			return true
		}
	}
	return false
}

var (
	_ TableDumper = (*PgxDumper)(nil)
	_ BackupStore = (storage.StorageService)(nil)
)
