// Package boltdb implements crudkit.Store on top of an embedded bolt database.
//
// Entities are JSON encoded and kept in one bucket per entity type.
// Integer identifiers are stored as big endian keys, so FindAll lists them in numeric order.
package boltdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"iter"
	"reflect"
	"time"

	"github.com/boltdb/bolt"
	uuid "github.com/satori/go.uuid"

	"go.llib.dev/rxcrud/pkg/errorkit"
	"go.llib.dev/rxcrud/port/crud"
	"go.llib.dev/rxcrud/port/crud/crudkit"
	"go.llib.dev/rxcrud/port/crud/extid"
)

const ErrUnsupportedID errorkit.Error = "unsupported identifier type"

const defaultPageSize = 64

// Open opens or creates the database file at path.
func Open(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
}

func NewStore[ENT, ID any](db *bolt.DB) *Store[ENT, ID] {
	return &Store[ENT, ID]{
		DB:     db,
		Bucket: reflect.TypeOf((*ENT)(nil)).Elem().String(),
	}
}

func NewRepository[ENT, ID any](db *bolt.DB, opts ...crudkit.Option[ENT, ID]) *crudkit.Repository[ENT, ID] {
	return crudkit.NewRepository[ENT, ID](NewStore[ENT, ID](db), opts...)
}

type Store[ENT, ID any] struct {
	DB     *bolt.DB
	Bucket string
	IDA    extid.Accessor[ENT, ID]
	// PageSize is the number of entities FindAll reads within one read transaction.
	PageSize int
}

var (
	_ crudkit.Store[struct{ ID int }, int] = (*Store[struct{ ID int }, int])(nil)
	_ crudkit.Counter                      = (*Store[struct{ ID int }, int])(nil)
	_ crudkit.Exister[int]                 = (*Store[struct{ ID int }, int])(nil)
)

func (s *Store[ENT, ID]) Save(ctx context.Context, ptr *ENT) error {
	if ptr == nil {
		return crud.ErrInvalidArgument.F("nil %T pointer given to Save", ptr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(s.Bucket))
		if err != nil {
			return err
		}
		id, ok := s.IDA.Lookup(*ptr)
		if !ok {
			id, err = s.newID(b)
			if err != nil {
				return err
			}
			if err := s.IDA.Set(ptr, id); err != nil {
				return err
			}
		}
		key, err := encodeKey(id)
		if err != nil {
			return err
		}
		value, err := json.Marshal(*ptr)
		if err != nil {
			return err
		}
		return b.Put(key, value)
	})
}

func (s *Store[ENT, ID]) FindByID(ctx context.Context, id ID) (ENT, bool, error) {
	var ent ENT
	if err := ctx.Err(); err != nil {
		return ent, false, err
	}
	key, err := encodeKey(id)
	if err != nil {
		return ent, false, err
	}
	var found bool
	err = s.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.Bucket))
		if b == nil {
			return nil
		}
		data := b.Get(key)
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &ent)
	})
	return ent, found && err == nil, err
}

func (s *Store[ENT, ID]) ExistsByID(ctx context.Context, id ID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, err := encodeKey(id)
	if err != nil {
		return false, err
	}
	var found bool
	err = s.DB.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(s.Bucket)); b != nil {
			found = b.Get(key) != nil
		}
		return nil
	})
	return found, err
}

// FindAll reads the bucket page by page, so no read transaction is held while the consumer works.
func (s *Store[ENT, ID]) FindAll(ctx context.Context) iter.Seq2[ENT, error] {
	return func(yield func(ENT, error) bool) {
		var after []byte
		for {
			if err := ctx.Err(); err != nil {
				var zero ENT
				yield(zero, err)
				return
			}
			page, last, err := s.page(after)
			if err != nil {
				var zero ENT
				yield(zero, err)
				return
			}
			for _, ent := range page {
				if !yield(ent, nil) {
					return
				}
			}
			if len(page) < s.pageSize() {
				return
			}
			after = last
		}
	}
}

func (s *Store[ENT, ID]) page(after []byte) ([]ENT, []byte, error) {
	var (
		ents []ENT
		last []byte
	)
	err := s.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.Bucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		k, v := c.First()
		if after != nil {
			k, v = c.Seek(after)
			if k != nil && bytes.Equal(k, after) {
				k, v = c.Next()
			}
		}
		for ; k != nil && len(ents) < s.pageSize(); k, v = c.Next() {
			var ent ENT
			if err := json.Unmarshal(v, &ent); err != nil {
				return err
			}
			ents = append(ents, ent)
			last = append(last[:0], k...)
		}
		return nil
	})
	return ents, last, err
}

func (s *Store[ENT, ID]) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int64
	err := s.DB.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket([]byte(s.Bucket)); b != nil {
			n = int64(b.Stats().KeyN)
		}
		return nil
	})
	return n, err
}

func (s *Store[ENT, ID]) DeleteByID(ctx context.Context, id ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := encodeKey(id)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.Bucket))
		if b == nil || b.Get(key) == nil {
			return crud.ErrNotFound.F("%T entity not found by id: %v", *new(ENT), id)
		}
		return b.Delete(key)
	})
}

func (s *Store[ENT, ID]) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.DB.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(s.Bucket)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(s.Bucket))
	})
}

func (s *Store[ENT, ID]) pageSize() int {
	if s.PageSize < 1 {
		return defaultPageSize
	}
	return s.PageSize
}

func (s *Store[ENT, ID]) newID(b *bolt.Bucket) (ID, error) {
	var id ID
	rv := reflect.ValueOf(&id).Elem()
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := b.NextSequence()
		if err != nil {
			return id, err
		}
		rv.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := b.NextSequence()
		if err != nil {
			return id, err
		}
		rv.SetUint(n)
	case reflect.String:
		rv.SetString(uuid.NewV4().String())
	default:
		return id, ErrUnsupportedID.F("%T", id)
	}
	return id, nil
}

func encodeKey[ID any](id ID) ([]byte, error) {
	rv := reflect.ValueOf(id)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return binary.BigEndian.AppendUint64(nil, uint64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return binary.BigEndian.AppendUint64(nil, rv.Uint()), nil
	case reflect.String:
		return []byte(rv.String()), nil
	default:
		return nil, ErrUnsupportedID.F("%T can not be used as a key", id)
	}
}
