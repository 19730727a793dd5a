// Package redis implements crudkit.Store with one Redis hash per entity type.
//
// Hash fields are the formatted identifiers and values are JSON encoded entities.
// Integer identifiers are generated with INCR on a sibling sequence key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"reflect"

	"github.com/redis/go-redis/v9"
	uuid "github.com/satori/go.uuid"

	"go.llib.dev/rxcrud/pkg/errorkit"
	"go.llib.dev/rxcrud/port/crud"
	"go.llib.dev/rxcrud/port/crud/crudkit"
	"go.llib.dev/rxcrud/port/crud/extid"
)

const ErrUnsupportedID errorkit.Error = "unsupported identifier type"

const defaultScanCount = 100

// Connect parses a redis:// URL and checks the connection with PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func NewStore[ENT, ID any](client redis.Cmdable) *Store[ENT, ID] {
	return &Store[ENT, ID]{
		Client: client,
		Key:    reflect.TypeOf((*ENT)(nil)).Elem().String(),
	}
}

func NewRepository[ENT, ID any](client redis.Cmdable, opts ...crudkit.Option[ENT, ID]) *crudkit.Repository[ENT, ID] {
	return crudkit.NewRepository[ENT, ID](NewStore[ENT, ID](client), opts...)
}

type Store[ENT, ID any] struct {
	Client redis.Cmdable
	// Key is the name of the hash holding the entities.
	Key string
	IDA extid.Accessor[ENT, ID]
	// ScanCount is the COUNT hint of the HSCAN calls made by FindAll.
	ScanCount int64
}

var (
	_ crudkit.Store[struct{ ID int }, int]       = (*Store[struct{ ID int }, int])(nil)
	_ crudkit.Counter                            = (*Store[struct{ ID int }, int])(nil)
	_ crudkit.Exister[int]                       = (*Store[struct{ ID int }, int])(nil)
	_ crudkit.ByIDsFinder[struct{ ID int }, int] = (*Store[struct{ ID int }, int])(nil)
)

func (s *Store[ENT, ID]) Save(ctx context.Context, ptr *ENT) error {
	if ptr == nil {
		return crud.ErrInvalidArgument.F("nil %T pointer given to Save", ptr)
	}
	id, ok := s.IDA.Lookup(*ptr)
	if !ok {
		nid, err := s.newID(ctx)
		if err != nil {
			return err
		}
		if err := s.IDA.Set(ptr, nid); err != nil {
			return err
		}
		id = nid
	}
	value, err := json.Marshal(*ptr)
	if err != nil {
		return err
	}
	return s.Client.HSet(ctx, s.Key, field(id), value).Err()
}

func (s *Store[ENT, ID]) FindByID(ctx context.Context, id ID) (ENT, bool, error) {
	var ent ENT
	data, err := s.Client.HGet(ctx, s.Key, field(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ent, false, nil
	}
	if err != nil {
		return ent, false, err
	}
	if err := json.Unmarshal(data, &ent); err != nil {
		return ent, false, err
	}
	return ent, true, nil
}

func (s *Store[ENT, ID]) ExistsByID(ctx context.Context, id ID) (bool, error) {
	return s.Client.HExists(ctx, s.Key, field(id)).Result()
}

// FindAll walks the hash with HSCAN.
// Fields returned twice by the scan are yielded once.
func (s *Store[ENT, ID]) FindAll(ctx context.Context) iter.Seq2[ENT, error] {
	return func(yield func(ENT, error) bool) {
		var (
			zero   ENT
			cursor uint64
			seen   = make(map[string]struct{})
		)
		for {
			kvs, next, err := s.Client.HScan(ctx, s.Key, cursor, "", s.scanCount()).Result()
			if err != nil {
				yield(zero, err)
				return
			}
			for i := 0; i+1 < len(kvs); i += 2 {
				if _, ok := seen[kvs[i]]; ok {
					continue
				}
				seen[kvs[i]] = struct{}{}
				var ent ENT
				if err := json.Unmarshal([]byte(kvs[i+1]), &ent); err != nil {
					yield(zero, err)
					return
				}
				if !yield(ent, nil) {
					return
				}
			}
			if next == 0 {
				return
			}
			cursor = next
		}
	}
}

func (s *Store[ENT, ID]) FindByIDs(ctx context.Context, ids ...ID) iter.Seq2[ENT, error] {
	return func(yield func(ENT, error) bool) {
		if len(ids) == 0 {
			return
		}
		var zero ENT
		fields := make([]string, 0, len(ids))
		for _, id := range ids {
			fields = append(fields, field(id))
		}
		vs, err := s.Client.HMGet(ctx, s.Key, fields...).Result()
		if err != nil {
			yield(zero, err)
			return
		}
		for _, v := range vs {
			raw, ok := v.(string)
			if !ok {
				continue
			}
			var ent ENT
			if err := json.Unmarshal([]byte(raw), &ent); err != nil {
				yield(zero, err)
				return
			}
			if !yield(ent, nil) {
				return
			}
		}
	}
}

func (s *Store[ENT, ID]) Count(ctx context.Context) (int64, error) {
	return s.Client.HLen(ctx, s.Key).Result()
}

func (s *Store[ENT, ID]) DeleteByID(ctx context.Context, id ID) error {
	n, err := s.Client.HDel(ctx, s.Key, field(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return crud.ErrNotFound.F("%T entity not found by id: %v", *new(ENT), id)
	}
	return nil
}

// DeleteAll removes the hash. The sequence key is kept, so generated ids are not reused.
func (s *Store[ENT, ID]) DeleteAll(ctx context.Context) error {
	return s.Client.Del(ctx, s.Key).Err()
}

func (s *Store[ENT, ID]) scanCount() int64 {
	if s.ScanCount < 1 {
		return defaultScanCount
	}
	return s.ScanCount
}

func (s *Store[ENT, ID]) sequenceKey() string {
	return s.Key + ":seq"
}

func (s *Store[ENT, ID]) newID(ctx context.Context) (ID, error) {
	var id ID
	rv := reflect.ValueOf(&id).Elem()
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := s.Client.Incr(ctx, s.sequenceKey()).Result()
		if err != nil {
			return id, err
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := s.Client.Incr(ctx, s.sequenceKey()).Result()
		if err != nil {
			return id, err
		}
		rv.SetUint(uint64(n))
	case reflect.String:
		rv.SetString(uuid.NewV4().String())
	default:
		return id, ErrUnsupportedID.F("%T", id)
	}
	return id, nil
}

func field[ID any](id ID) string {
	return fmt.Sprintf("%v", id)
}
