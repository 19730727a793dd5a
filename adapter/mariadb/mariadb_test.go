package mariadb_test

import (
	"context"
	"sync"
	"testing"

	uuid "github.com/satori/go.uuid"
	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"
	"go.uber.org/zap/zaptest"

	"go.llib.dev/rxcrud/adapter/mariadb"
	"go.llib.dev/rxcrud/pkg/env"
	"go.llib.dev/rxcrud/pkg/flsql"
	"go.llib.dev/rxcrud/port/comproto/comprotocontract"
	"go.llib.dev/rxcrud/port/crud/crudcontract"
	"go.llib.dev/rxcrud/testing/testent"
)

const (
	createFooTable = "CREATE TABLE IF NOT EXISTS `foos` (" +
		"`id` VARCHAR(255) NOT NULL PRIMARY KEY," +
		"`foo` TEXT NOT NULL," +
		"`bar` TEXT NOT NULL," +
		"`baz` TEXT NOT NULL)"
	createNoteTable = "CREATE TABLE IF NOT EXISTS `notes` (" +
		"`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
		"`title` TEXT NOT NULL," +
		"`body` TEXT NOT NULL," +
		"`score` BIGINT NOT NULL)"
)

var (
	m          sync.Mutex
	connection *mariadb.Connection
)

func DatabaseDSN(tb testing.TB) string {
	const envKey = "MARIADB_DATABASE_DSN"
	assert.NoError(tb, env.LoadDotEnv())
	u, ok, err := env.Lookup[string](envKey)
	assert.NoError(tb, err)
	if !ok {
		tb.Skipf("env variable is missing %s", envKey)
	}
	return u
}

func GetConnection(tb testing.TB) mariadb.Connection {
	m.Lock()
	defer m.Unlock()
	if connection == nil {
		c, err := mariadb.Connect(DatabaseDSN(tb))
		assert.Must(tb).NoError(err)
		connection = &c
	}
	assert.Must(tb).NoError(connection.DB.Ping())
	c := *connection
	c.Logger = zaptest.NewLogger(tb)
	return c
}

func migrate(tb testing.TB, c mariadb.Connection) {
	down, err := flsql.Migrate[flsql.Queryable](context.Background(), c,
		flsql.MigrationStep[flsql.Queryable]{UpQuery: createFooTable, DownQuery: "DROP TABLE IF EXISTS `foos`"},
		flsql.MigrationStep[flsql.Queryable]{UpQuery: createNoteTable, DownQuery: "DROP TABLE IF EXISTS `notes`"},
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
			mariadb.NewRepository(c, testent.FooMapping("foos", newFooID)),
			crudcontract.Config[testent.Foo, testent.FooID]{
				MakeEntity:   testent.MakeFoo,
				ChangeEntity: testent.ChangeFoo,
			}),
		crudcontract.Repository[testent.Note, testent.NoteID](
			mariadb.NewRepository(c, testent.NoteMapping("notes")),
			crudcontract.Config[testent.Note, testent.NoteID]{
				MakeEntity:   testent.MakeNote,
				ChangeEntity: testent.ChangeNote,
			}),
		comprotocontract.OnePhaseCommitProtocol(c),
	)
}

func TestStore_upsert(t *testing.T) {
	c := GetConnection(t)
	migrate(t, c)
	ctx := context.Background()
	store := mariadb.NewStore(c, testent.FooMapping("foos", newFooID))

	foo := testent.Foo{Foo: "a", Bar: "b", Baz: "c"}
	assert.NoError(t, store.Save(ctx, &foo))
	assert.NotEmpty(t, foo.ID)

	foo.Bar = "updated"
	assert.NoError(t, store.Save(ctx, &foo))

	got, found, err := store.FindByID(ctx, foo.ID)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, foo, got)

	n, err := store.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
