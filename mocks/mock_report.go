package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

// MockReportFetcher is a mock implementation of port.ReportFetcher.
type MockReportFetcher struct {
	mock.Mock
}

func (m *MockReportFetcher) Fetch(ctx context.Context, kind string, args domain.ReportArgs) (*domain.Table, error) {
	a := m.Called(ctx, kind, args)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(*domain.Table), a.Error(1)
}

// MockPortalClient is a mock implementation of port.PortalClient.
type MockPortalClient struct {
	mock.Mock
}

func (m *MockPortalClient) GetFiledInvoices(ctx context.Context, period string, typ domain.GSTType) ([]domain.Row, error) {
	a := m.Called(ctx, period, typ)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).([]domain.Row), a.Error(1)
}

// MockReportCache is a mock implementation of port.ReportCache.
type MockReportCache struct {
	mock.Mock
}

func (m *MockReportCache) Get(ctx context.Context, kind, key string) (*domain.Table, bool, error) {
	a := m.Called(ctx, kind, key)
	if a.Get(0) == nil {
		return nil, a.Bool(1), a.Error(2)
	}
	return a.Get(0).(*domain.Table), a.Bool(1), a.Error(2)
}

func (m *MockReportCache) Put(ctx context.Context, kind, key string, table *domain.Table) error {
	return m.Called(ctx, kind, key, table).Error(0)
}

// MockReportStore is a mock implementation of port.ReportStore.
type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) Refresh(ctx context.Context, target port.StoreTarget, owner string, args domain.ReportArgs, table *domain.Table) (int, error) {
	a := m.Called(ctx, target, owner, args, table)
	return a.Int(0), a.Error(1)
}
