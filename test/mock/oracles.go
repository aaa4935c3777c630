// test/mock/oracles.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/telgate/telgate/api/pdp/model"
)

// MockPermissionOracle is a mock implementation of oracle.PermissionOracle
type MockPermissionOracle struct {
	mock.Mock
}

func (m *MockPermissionOracle) HasPermission(name string, pid, uid int) bool {
	args := m.Called(name, pid, uid)
	return args.Bool(0)
}

func (m *MockPermissionOracle) HasCallingOrSelfPermission(name string) bool {
	args := m.Called(name)
	return args.Bool(0)
}

// MockAppOpOracle is a mock implementation of oracle.AppOpOracle
type MockAppOpOracle struct {
	mock.Mock
}

func (m *MockAppOpOracle) NoteOp(op string, uid int, pkg, featureID string) model.AppOpMode {
	args := m.Called(op, uid, pkg, featureID)
	return args.Get(0).(model.AppOpMode)
}

func (m *MockAppOpOracle) NoteOpNoThrow(op string, uid int, pkg, featureID string) model.AppOpMode {
	args := m.Called(op, uid, pkg, featureID)
	return args.Get(0).(model.AppOpMode)
}

// MockCarrierPrivilegeOracle is a mock implementation of oracle.CarrierPrivilegeOracle
type MockCarrierPrivilegeOracle struct {
	mock.Mock
}

func (m *MockCarrierPrivilegeOracle) StatusForSubscription(ctx context.Context, subID, uid int) (model.CarrierPrivilegeStatus, error) {
	args := m.Called(ctx, subID, uid)
	return args.Get(0).(model.CarrierPrivilegeStatus), args.Error(1)
}

// MockSubscriptionEnumerator is a mock implementation of oracle.SubscriptionEnumerator
type MockSubscriptionEnumerator struct {
	mock.Mock
}

func (m *MockSubscriptionEnumerator) ActiveSubscriptionIDs(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int), args.Error(1)
}

// MockLegacyPermissionOracle is a mock implementation of oracle.LegacyPermissionOracle
type MockLegacyPermissionOracle struct {
	mock.Mock
}

func (m *MockLegacyPermissionOracle) CheckPhoneNumberAccess(ctx context.Context, pkg, message, featureID string, pid, uid int) (model.LegacyDecision, error) {
	args := m.Called(ctx, pkg, message, featureID, pid, uid)
	return args.Get(0).(model.LegacyDecision), args.Error(1)
}

func (m *MockLegacyPermissionOracle) CheckDeviceIdentifierAccess(ctx context.Context, pkg, message, featureID string, pid, uid int) (model.LegacyDecision, error) {
	args := m.Called(ctx, pkg, message, featureID, pid, uid)
	return args.Get(0).(model.LegacyDecision), args.Error(1)
}

// MockPackageMetadataOracle is a mock implementation of oracle.PackageMetadataOracle
type MockPackageMetadataOracle struct {
	mock.Mock
}

func (m *MockPackageMetadataOracle) TargetAPILevel(ctx context.Context, pkg string, userID int) (int, error) {
	args := m.Called(ctx, pkg, userID)
	return args.Int(0), args.Error(1)
}

// MockDeviceConfigOracle is a mock implementation of oracle.DeviceConfigOracle
type MockDeviceConfigOracle struct {
	mock.Mock
}

func (m *MockDeviceConfigOracle) GetFlag(namespace, key string) (string, bool) {
	args := m.Called(namespace, key)
	return args.String(0), args.Bool(1)
}

// MockAssociationOracle is a mock implementation of oracle.AssociationOracle
type MockAssociationOracle struct {
	mock.Mock
}

func (m *MockAssociationOracle) IsAssociated(ctx context.Context, subID, userID int) (bool, error) {
	args := m.Called(ctx, subID, userID)
	return args.Bool(0), args.Error(1)
}

// MockEmergencyNumberOracle is a mock implementation of oracle.EmergencyNumberOracle
type MockEmergencyNumberOracle struct {
	mock.Mock
}

func (m *MockEmergencyNumberOracle) IsEmergencyNumber(ctx context.Context, number string) bool {
	args := m.Called(ctx, number)
	return args.Bool(0)
}
