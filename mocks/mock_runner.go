package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gstfiling/internal/domain"
	"gstfiling/internal/importer"
	"gstfiling/internal/report"
)

// MockImportRunner is a mock implementation of service.ImportRunner.
type MockImportRunner struct {
	mock.Mock
}

func (m *MockImportRunner) Run(ctx context.Context, req importer.Request) (*importer.RunResult, error) {
	a := m.Called(ctx, req)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(*importer.RunResult), a.Error(1)
}

// MockRefresher is a mock implementation of importer.Refresher.
type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Refresh(ctx context.Context, spec *report.Spec, owner string, args domain.ReportArgs) (int, error) {
	a := m.Called(ctx, spec, owner, args)
	return a.Int(0), a.Error(1)
}
