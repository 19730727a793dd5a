package testent

import (
	"context"

	"go.llib.dev/rxcrud/pkg/flsql"
)

// FooMapping maps Foo to a table with a client generated text primary key.
func FooMapping(table string, newID func(context.Context) (FooID, error)) flsql.Mapping[Foo, FooID] {
	return flsql.Mapping[Foo, FooID]{
		TableName: table,
		IDColumn:  "id",
		NewID:     newID,
		ToQuery: func(ctx context.Context) ([]flsql.ColumnName, flsql.MapScan[Foo]) {
			return []flsql.ColumnName{"id", "foo", "bar", "baz"},
				func(v *Foo, s flsql.Scanner) error {
					return s.Scan(&v.ID, &v.Foo, &v.Bar, &v.Baz)
				}
		},
		ToArgs: func(v Foo) (flsql.QueryArgs, error) {
			return flsql.QueryArgs{
				"id":  string(v.ID),
				"foo": v.Foo,
				"bar": v.Bar,
				"baz": v.Baz,
			}, nil
		},
	}
}

// NoteMapping maps Note to a table with a database generated serial primary key.
func NoteMapping(table string) flsql.Mapping[Note, NoteID] {
	return flsql.Mapping[Note, NoteID]{
		TableName: table,
		IDColumn:  "id",
		ToQuery: func(ctx context.Context) ([]flsql.ColumnName, flsql.MapScan[Note]) {
			return []flsql.ColumnName{"id", "title", "body", "score"},
				func(v *Note, s flsql.Scanner) error {
					var id int64
					if err := s.Scan(&id, &v.Title, &v.Body, &v.Score); err != nil {
						return err
					}
					v.ID = NoteID(id)
					return nil
				}
		},
		ToArgs: func(v Note) (flsql.QueryArgs, error) {
			return flsql.QueryArgs{
				"id":    int64(v.ID),
				"title": v.Title,
				"body":  v.Body,
				"score": v.Score,
			}, nil
		},
	}
}
