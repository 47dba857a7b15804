package auditware

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// StoreGateway owns the database handle for the package. It is a shared
// resource with no internal locking: concurrent writes rely on the store's
// per-statement atomicity, and the default pool is capped at one physical
// connection so writes serialize at the wire level.
type StoreGateway struct {
	dsn     string
	db      *bun.DB
	logger  Logger
	metrics MetricsCollector
}

var (
	_ UserStore      = (*StoreGateway)(nil)
	_ AccessLogStore = (*StoreGateway)(nil)
)

type StoreOption func(*StoreGateway)

// WithStoreDB injects an existing handle, skipping the Connect dial. Tests
// use this with an in-memory SQLite database.
func WithStoreDB(db *bun.DB) StoreOption {
	return func(s *StoreGateway) {
		s.db = db
	}
}

func WithStoreLogger(logger Logger) StoreOption {
	return func(s *StoreGateway) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithStoreMetrics(metrics MetricsCollector) StoreOption {
	return func(s *StoreGateway) {
		s.metrics = normalizeMetrics(metrics)
	}
}

// NewStoreGateway creates a gateway for the given Postgres DSN. The dial is
// deferred until Connect.
func NewStoreGateway(dsn string, opts ...StoreOption) *StoreGateway {
	s := &StoreGateway{
		dsn:     dsn,
		logger:  defLogger{},
		metrics: noopMetrics{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Connect opens the database handle. Idempotent: a second call when already
// connected is a no-op.
func (s *StoreGateway) Connect(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(s.dsn)))
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		s.metrics.RecordStoreError("connect")
		return storeUnavailable("connect", err)
	}

	s.db = db
	s.logger.Info("store connected")

	return nil
}

// Close releases the handle. Safe to call when never connected.
func (s *StoreGateway) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	if err != nil {
		return storeUnavailable("close", err)
	}

	return nil
}

// DB exposes the underlying handle for migrations and host wiring.
func (s *StoreGateway) DB() *bun.DB {
	return s.db
}

// UpsertUser writes the identity into the users table. On id conflict every
// non-key column is overwritten with the latest values; no merge, no
// versioning. One statement, autocommitted.
func (s *StoreGateway) UpsertUser(ctx context.Context, identity *Identity) error {
	if s.db == nil {
		return ErrStoreUnavailable.Clone().WithMetadata(map[string]any{
			"operation": "upsert_user",
			"reason":    "not connected",
		})
	}

	record := newUserRecord(identity)

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("email = EXCLUDED.email").
		Set("roles = EXCLUDED.roles").
		Set("department = EXCLUDED.department").
		Set("department_tree = EXCLUDED.department_tree").
		Exec(ctx)

	if err != nil {
		s.metrics.RecordStoreError("upsert_user")
		return storeUnavailable("upsert_user", err)
	}

	s.metrics.RecordUserUpsert()

	return nil
}

// InsertAccessLog appends one audit row. One statement, autocommitted, never
// batched with other writes.
func (s *StoreGateway) InsertAccessLog(ctx context.Context, entry *AccessLogEntry) error {
	if s.db == nil {
		return ErrStoreUnavailable.Clone().WithMetadata(map[string]any{
			"operation": "insert_access_log",
			"reason":    "not connected",
		})
	}

	record := newAccessLogRecord(entry)

	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		s.metrics.RecordStoreError("insert_access_log")
		return storeUnavailable("insert_access_log", err)
	}

	s.metrics.RecordAccessLogWrite()

	return nil
}
