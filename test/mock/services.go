// test/mock/services.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/telgate/telgate/api/model"
	pdp_model "github.com/telgate/telgate/api/pdp/model"
)

// MockAccessService is a mock implementation of service.IAccessService
type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) CheckReadPhoneState(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(pdp_model.AccessDecision), args.Error(1)
}

func (m *MockAccessService) CheckReadPhoneStateOnAnyActiveSub(ctx context.Context, caller pdp_model.CallerIdentity, message string) (pdp_model.AccessDecision, error) {
	args := m.Called(ctx, caller, message)
	return args.Get(0).(pdp_model.AccessDecision), args.Error(1)
}

func (m *MockAccessService) CheckReadPhoneNumber(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(pdp_model.AccessDecision), args.Error(1)
}

func (m *MockAccessService) CheckReadDeviceIdentifiers(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(pdp_model.AccessDecision), args.Error(1)
}

func (m *MockAccessService) CheckReadSubscriberIdentifiers(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(pdp_model.AccessDecision), args.Error(1)
}

func (m *MockAccessService) EnforcePrecisePhoneState(ctx context.Context, req pdp_model.AccessRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAccessService) CheckSubscriptionAssociatedWithUser(ctx context.Context, subID, userID int, number string) (bool, error) {
	args := m.Called(ctx, subID, userID, number)
	return args.Bool(0), args.Error(1)
}

// MockFactService is a mock implementation of service.IFactService
type MockFactService struct {
	mock.Mock
}

func (m *MockFactService) UpsertSubscription(ctx context.Context, sub model.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockFactService) GetSubscription(ctx context.Context, subID int) (*model.Subscription, error) {
	args := m.Called(ctx, subID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockFactService) ListActiveSubscriptionIDs(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockFactService) AddCarrierPrivilegeGrant(ctx context.Context, grant model.CarrierPrivilegeGrant) (string, error) {
	args := m.Called(ctx, grant)
	return args.String(0), args.Error(1)
}

func (m *MockFactService) RemoveCarrierPrivilegeGrant(ctx context.Context, subID, uid int) error {
	args := m.Called(ctx, subID, uid)
	return args.Error(0)
}

func (m *MockFactService) GrantPermission(ctx context.Context, grant model.PermissionGrant) (string, error) {
	args := m.Called(ctx, grant)
	return args.String(0), args.Error(1)
}

func (m *MockFactService) RevokePermission(ctx context.Context, permission string, uid int) error {
	args := m.Called(ctx, permission, uid)
	return args.Error(0)
}

func (m *MockFactService) SetAppOpMode(ctx context.Context, setting model.AppOpSetting) (string, error) {
	args := m.Called(ctx, setting)
	return args.String(0), args.Error(1)
}

func (m *MockFactService) RegisterPackage(ctx context.Context, pkg model.PackageInfo) error {
	args := m.Called(ctx, pkg)
	return args.Error(0)
}
