package memory

import (
	"context"
	"maps"
	"sync"

	"go.llib.dev/rxcrud/pkg/errorkit"
	"go.llib.dev/rxcrud/port/comproto"
)

const (
	errTxDone errorkit.Error = "transaction is already finished"
	errNoTx   errorkit.Error = "no transaction found in the given context"
)

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Memory is a namespaced in-memory key/value table set.
// It supports nested transactions bound to a context.
type Memory struct {
	m      sync.Mutex
	tables map[string]Namespace
	id     struct {
		init  sync.Once
		value string
	}
}

var _ comproto.OnePhaseCommitProtocol = (*Memory)(nil)

type Namespace map[string]any

type memoryActions interface {
	all(namespace string) map[string]any
	lookup(namespace, key string) (any, bool)
	set(namespace, key string, value any)
	del(namespace, key string) bool
}

func (m *Memory) Get(ctx context.Context, namespace, key string) (any, bool) {
	if tx, ok := m.LookupTx(ctx); ok {
		return tx.lookup(namespace, key)
	}
	return m.lookup(namespace, key)
}

// All returns a snapshot of the namespace as it is visible from ctx.
func (m *Memory) All(ctx context.Context, namespace string) map[string]any {
	if tx, ok := m.LookupTx(ctx); ok {
		return tx.all(namespace)
	}
	return m.all(namespace)
}

func (m *Memory) Set(ctx context.Context, namespace, key string, value any) {
	if tx, ok := m.LookupTx(ctx); ok {
		tx.set(namespace, key, value)
		return
	}
	m.set(namespace, key, value)
}

func (m *Memory) Del(ctx context.Context, namespace, key string) bool {
	if tx, ok := m.LookupTx(ctx); ok {
		return tx.del(namespace, key)
	}
	return m.del(namespace, key)
}

func (m *Memory) all(namespace string) map[string]any {
	m.m.Lock()
	defer m.m.Unlock()
	return maps.Clone(m.namespace(namespace))
}

func (m *Memory) lookup(namespace, key string) (any, bool) {
	m.m.Lock()
	defer m.m.Unlock()
	v, ok := m.namespace(namespace)[key]
	return v, ok
}

func (m *Memory) set(namespace, key string, value any) {
	m.m.Lock()
	defer m.m.Unlock()
	m.namespace(namespace)[key] = value
}

func (m *Memory) del(namespace, key string) bool {
	m.m.Lock()
	defer m.m.Unlock()
	ns := m.namespace(namespace)
	if _, ok := ns[key]; !ok {
		return false
	}
	delete(ns, key)
	return true
}

func (m *Memory) namespace(name string) Namespace {
	if m.tables == nil {
		m.tables = make(map[string]Namespace)
	}
	if _, ok := m.tables[name]; !ok {
		m.tables[name] = make(Namespace)
	}
	return m.tables[name]
}

type ctxKeyMemoryTx struct{ ID string }

func (m *Memory) ctxKey() ctxKeyMemoryTx {
	m.id.init.Do(func() { m.id.value = newUUID() })
	return ctxKeyMemoryTx{ID: m.id.value}
}

func (m *Memory) BeginTx(ctx context.Context) (context.Context, error) {
	if err := ctx.Err(); err != nil {
		return ctx, err
	}
	var super memoryActions = m
	if tx, ok := m.LookupTx(ctx); ok {
		super = tx
	}
	ctx, cancel := context.WithCancel(ctx)
	return context.WithValue(ctx, m.ctxKey(), &Tx{
		super:  super,
		cancel: cancel,
	}), nil
}

func (m *Memory) CommitTx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx, ok := m.LookupTx(ctx); ok {
		return tx.commit()
	}
	return errNoTx
}

func (m *Memory) RollbackTx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx, ok := m.LookupTx(ctx); ok {
		return tx.rollback()
	}
	return errNoTx
}

func (m *Memory) LookupTx(ctx context.Context) (*Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(m.ctxKey()).(*Tx)
	return tx, ok
}

// Tx buffers changes on top of its parent until commit.
type Tx struct {
	m       sync.Mutex
	done    bool
	super   memoryActions
	changes map[string]txChanges
	cancel  func()
}

type txChanges struct {
	Values  Namespace
	Deleted map[string]struct{}
}

func (tx *Tx) isDone() bool {
	tx.m.Lock()
	defer tx.m.Unlock()
	return tx.done
}

func (tx *Tx) all(namespace string) map[string]any {
	tx.m.Lock()
	defer tx.m.Unlock()
	vs := tx.super.all(namespace)
	changes := tx.getChanges(namespace)
	for k := range changes.Deleted {
		delete(vs, k)
	}
	maps.Copy(vs, changes.Values)
	return vs
}

func (tx *Tx) lookup(namespace, key string) (any, bool) {
	tx.m.Lock()
	defer tx.m.Unlock()
	changes := tx.getChanges(namespace)
	if v, ok := changes.Values[key]; ok {
		return v, true
	}
	if _, deleted := changes.Deleted[key]; deleted {
		return nil, false
	}
	return tx.super.lookup(namespace, key)
}

func (tx *Tx) set(namespace, key string, value any) {
	tx.m.Lock()
	defer tx.m.Unlock()
	changes := tx.getChanges(namespace)
	delete(changes.Deleted, key)
	changes.Values[key] = value
}

func (tx *Tx) del(namespace, key string) bool {
	if _, ok := tx.lookup(namespace, key); !ok {
		return false
	}
	tx.m.Lock()
	defer tx.m.Unlock()
	changes := tx.getChanges(namespace)
	delete(changes.Values, key)
	changes.Deleted[key] = struct{}{}
	return true
}

func (tx *Tx) commit() error {
	tx.m.Lock()
	defer tx.m.Unlock()
	if tx.done {
		return errTxDone
	}
	tx.done = true
	tx.cancel()
	for namespace, changes := range tx.changes {
		for key := range changes.Deleted {
			tx.super.del(namespace, key)
		}
		for key, value := range changes.Values {
			tx.super.set(namespace, key, value)
		}
	}
	return nil
}

// rollback discards the parent transactions as well,
// since nested transactions are not savepoints.
func (tx *Tx) rollback() error {
	tx.m.Lock()
	if tx.done {
		tx.m.Unlock()
		return errTxDone
	}
	tx.done = true
	tx.cancel()
	tx.m.Unlock()
	if super, ok := tx.super.(*Tx); ok && !super.isDone() {
		return super.rollback()
	}
	return nil
}

func (tx *Tx) getChanges(namespace string) txChanges {
	if tx.changes == nil {
		tx.changes = make(map[string]txChanges)
	}
	if _, ok := tx.changes[namespace]; !ok {
		tx.changes[namespace] = txChanges{
			Values:  make(Namespace),
			Deleted: make(map[string]struct{}),
		}
	}
	return tx.changes[namespace]
}
