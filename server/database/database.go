package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/topi314/gomigrate"
	"github.com/topi314/gomigrate/drivers/postgres"
	"github.com/topi314/gomigrate/drivers/sqlite"
	_ "modernc.org/sqlite"
)

//go:embed schema
var schema embed.FS

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

func New(ctx context.Context, cfg Config) (*Database, error) {
	var driverName string
	switch cfg.Driver {
	case DriverPostgres:
		driverName = "pgx"
	case DriverSQLite:
		driverName = "sqlite"
	default:
		return nil, fmt.Errorf("unknown database driver: %q", cfg.Driver)
	}

	dbx, err := sqlx.Connect(driverName, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// sqlite only allows one writer, a single connection avoids SQLITE_BUSY inside transactions
		dbx.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		dbx.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	migrations, err := fs.Sub(schema, "schema/"+string(cfg.Driver))
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if cfg.Driver == DriverSQLite {
		err = gomigrate.Migrate(migrateCtx, dbx, sqlite.New, migrations)
	} else {
		err = gomigrate.Migrate(migrateCtx, dbx, postgres.New, migrations)
	}
	if err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Database{
		Queries: &Queries{db: dbx},
		db:      dbx,
	}, nil
}

type Database struct {
	*Queries
	db *sqlx.DB
}

// Tx runs fn inside a single transaction. Hooks registered with Queries.OnCommit run after a successful commit.
func (d *Database) Tx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var hooks []func()
	if err = fn(&Queries{db: tx, hooks: &hooks}); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			slog.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("err", rErr))
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, hook := range hooks {
		hook()
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Database) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

func (d *Database) CleanupSessions() {
	for {
		d.doCleanupSessions()
		time.Sleep(1 * time.Hour)
	}
}

func (d *Database) doCleanupSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := d.DeleteExpiredSessions(ctx, time.Now()); err != nil {
		slog.Error("failed to cleanup expired sessions", slog.Any("err", err))
	}
}

// Queries holds every store operation. It runs either directly on the pool or inside a transaction.
type Queries struct {
	db    sqlx.ExtContext
	hooks *[]func()
}

// OnCommit defers fn until the surrounding transaction commits. Outside a transaction fn runs immediately.
func (q *Queries) OnCommit(fn func()) {
	if q.hooks == nil {
		fn()
		return
	}
	*q.hooks = append(*q.hooks, fn)
}

func (q *Queries) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q.db, dest, q.db.Rebind(query), args...)
}

func (q *Queries) sel(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q.db, dest, q.db.Rebind(query), args...)
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.db.Rebind(query), args...)
}

func (q *Queries) selIn(ctx context.Context, dest any, query string, args ...any) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return q.sel(ctx, dest, query, args...)
}

func (q *Queries) execIn(ctx context.Context, query string, args ...any) (sql.Result, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	return q.exec(ctx, query, args...)
}

// insert executes a named INSERT ... RETURNING statement and scans the returned id.
func (q *Queries) insert(ctx context.Context, query string, arg any) (int, error) {
	query, args, err := q.db.BindNamed(query, arg)
	if err != nil {
		return 0, err
	}

	var id int
	if err = sqlx.GetContext(ctx, q.db, &id, query, args...); err != nil {
		return 0, err
	}
	return id, nil
}

func (q *Queries) named(ctx context.Context, query string, arg any) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, q.db, query, arg)
}
