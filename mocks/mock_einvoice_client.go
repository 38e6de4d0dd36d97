package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gstfiling/internal/port"
)

// MockEInvoiceClient is a mock implementation of port.EInvoiceClient.
type MockEInvoiceClient struct {
	mock.Mock
}

func (m *MockEInvoiceClient) Upload(ctx context.Context, payload []byte) (*port.EInvoiceResult, error) {
	a := m.Called(ctx, payload)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(*port.EInvoiceResult), a.Error(1)
}
