// Package sqlite provides crudkit stores backed by SQLite through the go-sqlite3 driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"go.llib.dev/rxcrud/pkg/flsql"
	"go.llib.dev/rxcrud/port/crud/crudkit"
)

type Connection = flsql.ConnectionAdapter[sql.DB, sql.Tx]

// Open connects to the database file at path, or to an in-memory database with ":memory:".
//
// SQLite serialises its writers, so the connection pool is limited to a single connection.
func Open(ctx context.Context, path string) (Connection, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path))
	if err != nil {
		return Connection{}, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return Connection{}, fmt.Errorf("failed to ping SQLite: %w", err)
	}
	return flsql.SQLConnectionAdapter(db), nil
}

func NewStore[ENT, ID any](c flsql.Connection, m flsql.Mapping[ENT, ID]) *flsql.Store[ENT, ID] {
	return flsql.NewStore(c, flsql.SQLite, m)
}

func NewRepository[ENT, ID any](c flsql.Connection, m flsql.Mapping[ENT, ID], opts ...crudkit.Option[ENT, ID]) *crudkit.Repository[ENT, ID] {
	return crudkit.NewRepository[ENT, ID](NewStore(c, m), opts...)
}
