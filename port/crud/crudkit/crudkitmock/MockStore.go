// Package crudkitmock provides a gomock mock for crudkit.Store.
// It is meant for the rainy paths of repository tests,
// and for asserting that a call never reached the storage.
package crudkitmock

import (
	"context"
	"iter"
	"reflect"

	"github.com/golang/mock/gomock"
)

// MockStore is a mock of the crudkit.Store interface.
type MockStore[ENT, ID any] struct {
	ctrl     *gomock.Controller
	recorder *MockStoreMockRecorder[ENT, ID]
}

// MockStoreMockRecorder is the mock recorder for MockStore.
type MockStoreMockRecorder[ENT, ID any] struct {
	mock *MockStore[ENT, ID]
}

// NewMockStore creates a new mock instance.
func NewMockStore[ENT, ID any](ctrl *gomock.Controller) *MockStore[ENT, ID] {
	mock := &MockStore[ENT, ID]{ctrl: ctrl}
	mock.recorder = &MockStoreMockRecorder[ENT, ID]{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockStore[ENT, ID]) EXPECT() *MockStoreMockRecorder[ENT, ID] {
	return m.recorder
}

// Save mocks base method.
func (m *MockStore[ENT, ID]) Save(ctx context.Context, ptr *ENT) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Save", ctx, ptr)
	ret0, _ := ret[0].(error)
	return ret0
}

// Save indicates an expected call of Save.
func (mr *MockStoreMockRecorder[ENT, ID]) Save(ctx, ptr interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Save", reflect.TypeOf((*MockStore[ENT, ID])(nil).Save), ctx, ptr)
}

// FindByID mocks base method.
func (m *MockStore[ENT, ID]) FindByID(ctx context.Context, id ID) (ENT, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindByID", ctx, id)
	ret0, _ := ret[0].(ENT)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// FindByID indicates an expected call of FindByID.
func (mr *MockStoreMockRecorder[ENT, ID]) FindByID(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindByID", reflect.TypeOf((*MockStore[ENT, ID])(nil).FindByID), ctx, id)
}

// FindAll mocks base method.
func (m *MockStore[ENT, ID]) FindAll(ctx context.Context) iter.Seq2[ENT, error] {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindAll", ctx)
	ret0, _ := ret[0].(iter.Seq2[ENT, error])
	return ret0
}

// FindAll indicates an expected call of FindAll.
func (mr *MockStoreMockRecorder[ENT, ID]) FindAll(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindAll", reflect.TypeOf((*MockStore[ENT, ID])(nil).FindAll), ctx)
}

// DeleteByID mocks base method.
func (m *MockStore[ENT, ID]) DeleteByID(ctx context.Context, id ID) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteByID", ctx, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// DeleteByID indicates an expected call of DeleteByID.
func (mr *MockStoreMockRecorder[ENT, ID]) DeleteByID(ctx, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteByID", reflect.TypeOf((*MockStore[ENT, ID])(nil).DeleteByID), ctx, id)
}

// DeleteAll mocks base method.
func (m *MockStore[ENT, ID]) DeleteAll(ctx context.Context) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteAll", ctx)
	ret0, _ := ret[0].(error)
	return ret0
}

// DeleteAll indicates an expected call of DeleteAll.
func (mr *MockStoreMockRecorder[ENT, ID]) DeleteAll(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteAll", reflect.TypeOf((*MockStore[ENT, ID])(nil).DeleteAll), ctx)
}
