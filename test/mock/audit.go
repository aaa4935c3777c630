// test/mock/audit.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/telgate/telgate/api/audit"
)

// MockAuditService is a mock implementation of audit.Service
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) LogAccess(ctx context.Context, log audit.AccessLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditService) LogFactChange(ctx context.Context, change audit.FactChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockAuditService) QueryAccessLogs(ctx context.Context, from, to time.Time, uid int, check string) ([]audit.AccessLog, error) {
	args := m.Called(ctx, from, to, uid, check)
	return args.Get(0).([]audit.AccessLog), args.Error(1)
}
