package iocache

import (
	"context"
	"time"

	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetSprintStore implements the StoreManager interface.
func (m *MockStoreManager) GetSprintStore() contract.SprintStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SprintStore)
	return store
}

// MockSprintStore is a mock implementation of SprintStore for testing.
type MockSprintStore struct {
	mock.Mock
}

var _ contract.SprintStore = &MockSprintStore{} // Compile-time check

// Get implements the SprintStore interface.
func (m *MockSprintStore) Get(ctx context.Context, start, end time.Time) (*schema.SprintRecord, error) {
	args := m.Called(ctx, start, end)
	rec, _ := args.Get(0).(*schema.SprintRecord)
	return rec, args.Error(1)
}

// Insert implements the SprintStore interface.
func (m *MockSprintStore) Insert(ctx context.Context, rec *schema.SprintRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// Upsert implements the SprintStore interface.
func (m *MockSprintStore) Upsert(ctx context.Context, rec *schema.SprintRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// List implements the SprintStore interface.
func (m *MockSprintStore) List(ctx context.Context) ([]schema.CachedSprint, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]schema.CachedSprint)
	return list, args.Error(1)
}

// Delete implements the SprintStore interface.
func (m *MockSprintStore) Delete(ctx context.Context, start, end time.Time) error {
	args := m.Called(ctx, start, end)
	return args.Error(0)
}

// GetStatus implements the SprintStore interface.
func (m *MockSprintStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the SprintStore interface.
func (m *MockSprintStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
