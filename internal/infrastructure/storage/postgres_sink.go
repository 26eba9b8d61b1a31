package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"SalesScanner/internal/domain"
	"SalesScanner/internal/ports"
)

// DefaultSaleTable stores one row per sold event.
const DefaultSaleTable = "sale_records"

// PostgresSink mirrors sale rows into Postgres. Duplicate events are ignored.
type PostgresSink struct {
	db    *sqlx.DB
	table string
}

var _ ports.SaleSink = (*PostgresSink)(nil)

// OpenPostgres connects with the lib/pq driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// NewPostgresSink wires a sqlx.DB implementation. An empty table name falls
// back to DefaultSaleTable.
func NewPostgresSink(db *sqlx.DB, table string) *PostgresSink {
	if table == "" {
		table = DefaultSaleTable
	}
	return &PostgresSink{db: db, table: table}
}

// Name implements ports.SaleSink.
func (s *PostgresSink) Name() string {
	return "postgres"
}

// EnsureTable creates the sale table when it does not exist yet.
func (s *PostgresSink) EnsureTable(ctx context.Context) error {
	if s.db == nil {
		return nil
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		address    TEXT NOT NULL,
		event_type TEXT NOT NULL,
		event_date TEXT NOT NULL,
		sqft       INTEGER NOT NULL DEFAULT 0,
		bed        DOUBLE PRECISION NOT NULL DEFAULT 0,
		bath       DOUBLE PRECISION NOT NULL DEFAULT 0,
		price      TEXT NOT NULL,
		url        TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (address, event_date, price)
	)`, pq.QuoteIdentifier(s.table))

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// Append inserts the row unless the same event is already stored.
func (s *PostgresSink) Append(ctx context.Context, row domain.SaleRow) error {
	if s.db == nil {
		return nil
	}

	query, args, err := s.insert(row).ToSql()
	if err != nil {
		return domain.Sink("insert sale row", fmt.Errorf("build query: %w", err))
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Sink("insert sale row", fmt.Errorf("exec: %w", err))
	}
	return nil
}

func (s *PostgresSink) insert(row domain.SaleRow) sq.InsertBuilder {
	return sq.Insert(pq.QuoteIdentifier(s.table)).
		Columns("address", "event_type", "event_date", "sqft", "bed", "bath", "price", "url").
		Values(row.Address, row.EventType.String(), row.Date, row.Sqft, row.Bed, row.Bath, row.Price, row.URL).
		Suffix("ON CONFLICT (address, event_date, price) DO NOTHING").
		PlaceholderFormat(sq.Dollar)
}
