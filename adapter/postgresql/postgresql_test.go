package postgresql_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	uuid "github.com/satori/go.uuid"
	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"
	"go.uber.org/zap/zaptest"

	"go.llib.dev/rxcrud/adapter/postgresql"
	"go.llib.dev/rxcrud/pkg/env"
	"go.llib.dev/rxcrud/pkg/flsql"
	"go.llib.dev/rxcrud/port/comproto"
	"go.llib.dev/rxcrud/port/comproto/comprotocontract"
	"go.llib.dev/rxcrud/port/crud/crudcontract"
	"go.llib.dev/rxcrud/port/crud/crudtest"
	"go.llib.dev/rxcrud/port/rx"
	"go.llib.dev/rxcrud/testing/testent"
)

const (
	createFooTable = `CREATE TABLE IF NOT EXISTS "foos" (
	id  TEXT NOT NULL PRIMARY KEY,
	foo TEXT NOT NULL,
	bar TEXT NOT NULL,
	baz TEXT NOT NULL
)`
	createNoteTable = `CREATE TABLE IF NOT EXISTS "notes" (
	id    BIGSERIAL NOT NULL PRIMARY KEY,
	title TEXT      NOT NULL,
	body  TEXT      NOT NULL,
	score BIGINT    NOT NULL
)`
)

var (
	m          sync.Mutex
	connection *postgresql.Connection
)

func DatabaseURL(tb testing.TB) string {
	const envKey = "PG_DATABASE_URL"
	assert.NoError(tb, env.LoadDotEnv())
	u, ok, err := env.Lookup[string](envKey)
	assert.NoError(tb, err)
	if !ok {
		tb.Skipf("env variable is missing %s", envKey)
	}
	return u
}

func GetConnection(tb testing.TB) postgresql.Connection {
	m.Lock()
	defer m.Unlock()
	if connection == nil {
		c, err := postgresql.Connect(context.Background(), DatabaseURL(tb))
		assert.Must(tb).NoError(err)
		connection = &c
	}
	assert.Must(tb).NoError(connection.DB.Ping(context.Background()))
	c := *connection
	c.Logger = zaptest.NewLogger(tb)
	return c
}

func migrate(tb testing.TB, c postgresql.Connection) {
	down, err := flsql.Migrate[flsql.Queryable](context.Background(), c,
		flsql.MigrationStep[flsql.Queryable]{UpQuery: createFooTable, DownQuery: `DROP TABLE IF EXISTS "foos"`},
		flsql.MigrationStep[flsql.Queryable]{UpQuery: createNoteTable, DownQuery: `DROP TABLE IF EXISTS "notes"`},
	)
	assert.Must(tb).NoError(err)
	tb.Cleanup(func() { assert.NoError(tb, down(context.Background())) })
}

func newFooID(context.Context) (testent.FooID, error) {
	return testent.FooID(uuid.NewV4().String()), nil
}

func TestRepository(t *testing.T) {
	c := GetConnection(t)
	migrate(t, c)

	testcase.RunSuite(t,
		crudcontract.Repository[testent.Foo, testent.FooID](
			postgresql.NewRepository(c, testent.FooMapping("foos", newFooID)),
			crudcontract.Config[testent.Foo, testent.FooID]{
				MakeEntity:   testent.MakeFoo,
				ChangeEntity: testent.ChangeFoo,
			}),
		crudcontract.Repository[testent.Note, testent.NoteID](
			postgresql.NewRepository(c, testent.NoteMapping("notes")),
			crudcontract.Config[testent.Note, testent.NoteID]{
				MakeEntity:   testent.MakeNote,
				ChangeEntity: testent.ChangeNote,
			}),
		comprotocontract.OnePhaseCommitProtocol(c),
	)
}

func TestWithTxOptions(t *testing.T) {
	c := GetConnection(t)
	migrate(t, c)
	ctx := postgresql.WithTxOptions(context.Background(), pgx.TxOptions{AccessMode: pgx.ReadOnly})

	tx, err := c.BeginTx(ctx)
	assert.Must(t).NoError(err)
	defer func() { _ = c.RollbackTx(tx) }()

	note := testent.MakeNote(t)
	err = postgresql.NewStore(c, testent.NoteMapping("notes")).Save(tx, &note)
	assert.Error(t, err)
}

func TestRepository_atomicSaveStream(t *testing.T) {
	c := GetConnection(t)
	migrate(t, c)
	ctx := context.Background()
	store := postgresql.NewStore(c, testent.NoteMapping("notes"))
	repo := postgresql.NewRepository(c, testent.NoteMapping("notes"))

	expErr := errors.New("boom")
	saved, err := repo.SaveStream(rx.MapMany(rx.Of(1, 2), func(n int) (testent.Note, error) {
		if n == 2 {
			return testent.Note{}, expErr
		}
		return testent.MakeNote(t), nil
	}))
	assert.Must(t).NoError(err)
	_, err = comproto.Atomic(store, saved).Collect(ctx)
	assert.ErrorIs(t, expErr, err)
	assert.Equal(t, int64(0), crudtest.Count(t, ctx, repo))
}
