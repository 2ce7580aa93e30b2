package db

import (
	"context"
	"database/sql"
	"fmt"

	"ms-concerts/internal/models"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the configured database and pings it.
func Open(ctx context.Context, driver, dsn string, maxOpenConns int) (*bun.DB, error) {
	var (
		sqldb *sql.DB
		err   error
	)

	switch driver {
	case DriverSQLite:
		sqldb, err = sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite serializes writers; a single connection avoids "database is locked".
		sqldb.SetMaxOpenConns(1)
	case DriverPostgres:
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if maxOpenConns > 0 {
			sqldb.SetMaxOpenConns(maxOpenConns)
			sqldb.SetMaxIdleConns(maxOpenConns)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == DriverPostgres {
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateSchema creates the tables from the bun models. Postgres deployments
// use the versioned migrations instead.
func CreateSchema(ctx context.Context, bunDB *bun.DB) error {
	tables := []interface{}{
		(*models.Concert)(nil),
		(*models.User)(nil),
		(*models.Ticket)(nil),
		(*models.TicketCount)(nil),
	}
	for _, model := range tables {
		if _, err := bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	_, err := bunDB.NewCreateIndex().
		Model((*models.Ticket)(nil)).
		Index("tickets_concert_id_idx").
		Column("concert_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create tickets index: %w", err)
	}
	return nil
}
