// Package mariadb provides crudkit stores backed by MariaDB through the go-sql-driver/mysql driver.
//
// Database generated identifiers are read back with INSERT ... RETURNING,
// which requires MariaDB 10.5 or newer.
package mariadb

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"go.llib.dev/rxcrud/pkg/flsql"
	"go.llib.dev/rxcrud/port/crud/crudkit"
)

type Connection = flsql.ConnectionAdapter[sql.DB, sql.Tx]

func Connect(dsn string) (Connection, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return Connection{}, err
	}
	db.SetConnMaxLifetime(time.Minute * 3)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	return flsql.SQLConnectionAdapter(db), nil
}

func NewStore[ENT, ID any](c flsql.Connection, m flsql.Mapping[ENT, ID]) *flsql.Store[ENT, ID] {
	return flsql.NewStore(c, flsql.MySQL, m)
}

func NewRepository[ENT, ID any](c flsql.Connection, m flsql.Mapping[ENT, ID], opts ...crudkit.Option[ENT, ID]) *crudkit.Repository[ENT, ID] {
	return crudkit.NewRepository[ENT, ID](NewStore(c, m), opts...)
}
