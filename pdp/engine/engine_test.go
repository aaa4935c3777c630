// pdp/engine/engine_test.go
package engine_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/telgate/telgate/api/errors"
	logger "github.com/telgate/telgate/api/logging"
	"github.com/telgate/telgate/api/pdp/engine"
	"github.com/telgate/telgate/api/pdp/model"
	"github.com/telgate/telgate/api/test/mock"
)

const (
	subID   = 55555
	subID2  = 22222
	pkgName = "com.example"
	feature = "com.example.feature"
	message = "message"
	pid     = 1234
	uid     = 10077
	userID  = 0
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "arbiter-test")
	if err != nil {
		panic(err)
	}
	logger.InitLogger(dir)
	code := m.Run()
	logger.Sync()
	os.RemoveAll(dir)
	os.Exit(code)
}

type fixture struct {
	permissions   *mock.MockPermissionOracle
	appOps        *mock.MockAppOpOracle
	carrier       *mock.MockCarrierPrivilegeOracle
	subscriptions *mock.MockSubscriptionEnumerator
	legacy        *mock.MockLegacyPermissionOracle
	packages      *mock.MockPackageMetadataOracle
	deviceConfig  *mock.MockDeviceConfigOracle
	association   *mock.MockAssociationOracle
	emergency     *mock.MockEmergencyNumberOracle
	engine        *engine.Engine
}

func newFixture() *fixture {
	f := &fixture{
		permissions:   new(mock.MockPermissionOracle),
		appOps:        new(mock.MockAppOpOracle),
		carrier:       new(mock.MockCarrierPrivilegeOracle),
		subscriptions: new(mock.MockSubscriptionEnumerator),
		legacy:        new(mock.MockLegacyPermissionOracle),
		packages:      new(mock.MockPackageMetadataOracle),
		deviceConfig:  new(mock.MockDeviceConfigOracle),
		association:   new(mock.MockAssociationOracle),
		emergency:     new(mock.MockEmergencyNumberOracle),
	}
	f.engine = engine.NewEngine(engine.Oracles{
		Permissions:   f.permissions,
		AppOps:        f.appOps,
		Carrier:       f.carrier,
		Subscriptions: f.subscriptions,
		Legacy:        f.legacy,
		Packages:      f.packages,
		DeviceConfig:  f.deviceConfig,
		Association:   f.association,
		Emergency:     f.emergency,
	})
	return f
}

// stubDefaults installs negative answers for everything not already stubbed.
// Register scenario-specific expectations before calling it: testify matches
// expectations in registration order.
func (f *fixture) stubDefaults() {
	f.permissions.On("HasPermission", tmock.Anything, tmock.Anything, tmock.Anything).Return(false).Maybe()
	f.permissions.On("HasCallingOrSelfPermission", tmock.Anything).Return(false).Maybe()
	f.appOps.On("NoteOpNoThrow", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).Return(model.AppOpIgnored).Maybe()
	f.carrier.On("StatusForSubscription", tmock.Anything, tmock.Anything, tmock.Anything).Return(model.CarrierPrivilegeNoAccess, nil).Maybe()
	f.subscriptions.On("ActiveSubscriptionIDs", tmock.Anything).Return([]int{subID}, nil).Maybe()
	f.legacy.On("CheckPhoneNumberAccess", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).Return(model.LegacyDenied, nil).Maybe()
	f.legacy.On("CheckDeviceIdentifierAccess", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).Return(model.LegacyDenied, nil).Maybe()
	f.packages.On("TargetAPILevel", tmock.Anything, tmock.Anything, tmock.Anything).Return(model.ModernTargetAPILevel, nil).Maybe()
	f.deviceConfig.On("GetFlag", tmock.Anything, tmock.Anything).Return("", false).Maybe()
	f.association.On("IsAssociated", tmock.Anything, tmock.Anything, tmock.Anything).Return(false, nil).Maybe()
	f.emergency.On("IsEmergencyNumber", tmock.Anything, tmock.Anything).Return(false).Maybe()
}

func request() model.AccessRequest {
	return model.AccessRequest{
		Caller: model.CallerIdentity{
			PID:       pid,
			UID:       uid,
			UserID:    userID,
			Package:   pkgName,
			FeatureID: feature,
		},
		SubscriptionID: subID,
		Message:        message,
	}
}

func caller() model.CallerIdentity {
	return request().Caller
}

func assertHardDenial(t *testing.T, granted bool, err error) {
	t.Helper()
	assert.False(t, granted)
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrAccessDenied)
	assert.Contains(t, err.Error(), message)
}

func TestCheckReadPhoneState(t *testing.T) {
	ctx := context.Background()

	t.Run("GrantedWithPrivilegedPermission", func(t *testing.T) {
		f := newFixture()
		f.permissions.On("HasPermission", model.PermissionReadPrivilegedPhoneState, pid, uid).Return(true)
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneState(ctx, request())
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("GrantedWithPermissionAndAppOp", func(t *testing.T) {
		f := newFixture()
		f.permissions.On("HasPermission", model.PermissionReadPhoneState, pid, uid).Return(true)
		f.appOps.On("NoteOpNoThrow", model.OpReadPhoneState, uid, pkgName, feature).Return(model.AppOpAllowed)
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneState(ctx, request())
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("SilentDenyWithPermissionWithoutAppOp", func(t *testing.T) {
		f := newFixture()
		f.permissions.On("HasPermission", model.PermissionReadPhoneState, pid, uid).Return(true)
		f.appOps.On("NoteOpNoThrow", model.OpReadPhoneState, uid, pkgName, feature).Return(model.AppOpIgnored)
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneState(ctx, request())
		require.NoError(t, err)
		assert.False(t, granted)
		// The permission holder degrades silently; carrier privilege is never
		// consulted.
		f.carrier.AssertNotCalled(t, "StatusForSubscription", tmock.Anything, tmock.Anything, tmock.Anything)
	})

	t.Run("GrantedWithCarrierPrivilege", func(t *testing.T) {
		f := newFixture()
		f.carrier.On("StatusForSubscription", tmock.Anything, subID, uid).Return(model.CarrierPrivilegeHasAccess, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneState(ctx, request())
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("DeniedWithoutAnyGrant", func(t *testing.T) {
		f := newFixture()
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneState(ctx, request())
		assertHardDenial(t, granted, err)
	})

	t.Run("CarrierLookupErrorPropagates", func(t *testing.T) {
		f := newFixture()
		lookupErr := fmt.Errorf("carrier store unavailable")
		f.carrier.On("StatusForSubscription", tmock.Anything, subID, uid).Return(model.CarrierPrivilegeNoAccess, lookupErr)
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneState(ctx, request())
		assert.False(t, granted)
		require.Error(t, err)
		assert.NotErrorIs(t, err, apierrors.ErrAccessDenied)
	})
}

func TestCheckReadPhoneStateOnAnyActiveSub(t *testing.T) {
	ctx := context.Background()

	t.Run("GrantedWithPrivilegedPermission", func(t *testing.T) {
		f := newFixture()
		f.permissions.On("HasPermission", model.PermissionReadPrivilegedPhoneState, pid, uid).Return(true)
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneStateOnAnyActiveSub(ctx, caller(), message)
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("GrantedWithCarrierPrivilegeOnSecondSub", func(t *testing.T) {
		f := newFixture()
		f.subscriptions.On("ActiveSubscriptionIDs", tmock.Anything).Return([]int{subID2, subID}, nil)
		f.carrier.On("StatusForSubscription", tmock.Anything, subID2, uid).Return(model.CarrierPrivilegeNoAccess, nil)
		f.carrier.On("StatusForSubscription", tmock.Anything, subID, uid).Return(model.CarrierPrivilegeHasAccess, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneStateOnAnyActiveSub(ctx, caller(), message)
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("FalseWithoutErrorWhenNoActiveSubs", func(t *testing.T) {
		f := newFixture()
		f.subscriptions.On("ActiveSubscriptionIDs", tmock.Anything).Return([]int{}, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneStateOnAnyActiveSub(ctx, caller(), message)
		require.NoError(t, err)
		assert.False(t, granted)
	})

	t.Run("FalseWithoutErrorWhenNothingGrants", func(t *testing.T) {
		f := newFixture()
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneStateOnAnyActiveSub(ctx, caller(), message)
		require.NoError(t, err)
		assert.False(t, granted)
	})
}

func TestCheckReadPhoneNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("GrantedByLegacyManager", func(t *testing.T) {
		f := newFixture()
		f.legacy.On("CheckPhoneNumberAccess", tmock.Anything, pkgName, message, feature, pid, uid).Return(model.LegacyGranted, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneNumber(ctx, request())
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("SilentDenyWhenLegacyIgnores", func(t *testing.T) {
		f := newFixture()
		f.legacy.On("CheckPhoneNumberAccess", tmock.Anything, pkgName, message, feature, pid, uid).Return(model.LegacyIgnored, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneNumber(ctx, request())
		require.NoError(t, err)
		assert.False(t, granted)
		f.carrier.AssertNotCalled(t, "StatusForSubscription", tmock.Anything, tmock.Anything, tmock.Anything)
	})

	t.Run("GrantedWithCarrierPrivilegeAfterLegacyDenial", func(t *testing.T) {
		f := newFixture()
		f.carrier.On("StatusForSubscription", tmock.Anything, subID, uid).Return(model.CarrierPrivilegeHasAccess, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneNumber(ctx, request())
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("DeniedWithoutAnyGrant", func(t *testing.T) {
		f := newFixture()
		f.stubDefaults()

		granted, err := f.engine.CheckReadPhoneNumber(ctx, request())
		assertHardDenial(t, granted, err)
	})
}

func TestEnforceReadPrecisePhoneStateOrCarrierPrivilege(t *testing.T) {
	ctx := context.Background()

	t.Run("PassesWithPrivilegedPermission", func(t *testing.T) {
		f := newFixture()
		f.permissions.On("HasCallingOrSelfPermission", model.PermissionReadPrivilegedPhoneState).Return(true)
		f.stubDefaults()

		err := f.engine.EnforceReadPrecisePhoneStateOrCarrierPrivilege(ctx, subID, uid, message)
		assert.NoError(t, err)
	})

	t.Run("PassesWithPrecisePermission", func(t *testing.T) {
		f := newFixture()
		f.permissions.On("HasCallingOrSelfPermission", model.PermissionReadPrivilegedPhoneState).Return(false)
		f.permissions.On("HasCallingOrSelfPermission", model.PermissionReadPrecisePhoneState).Return(true)
		f.stubDefaults()

		err := f.engine.EnforceReadPrecisePhoneStateOrCarrierPrivilege(ctx, subID, uid, message)
		assert.NoError(t, err)
	})

	t.Run("PassesWithCarrierPrivilege", func(t *testing.T) {
		f := newFixture()
		f.carrier.On("StatusForSubscription", tmock.Anything, subID, uid).Return(model.CarrierPrivilegeHasAccess, nil)
		f.stubDefaults()

		err := f.engine.EnforceReadPrecisePhoneStateOrCarrierPrivilege(ctx, subID, uid, message)
		assert.NoError(t, err)
	})

	t.Run("DeniedOtherwise", func(t *testing.T) {
		f := newFixture()
		f.stubDefaults()

		err := f.engine.EnforceReadPrecisePhoneStateOrCarrierPrivilege(ctx, subID, uid, message)
		require.Error(t, err)
		assert.ErrorIs(t, err, apierrors.ErrAccessDenied)
		assert.Contains(t, err.Error(), message)
	})
}

func TestCheckSubscriptionAssociatedWithUser(t *testing.T) {
	ctx := context.Background()

	t.Run("EmergencyNumberAlwaysAssociated", func(t *testing.T) {
		f := newFixture()
		f.emergency.On("IsEmergencyNumber", tmock.Anything, "911").Return(true)
		f.stubDefaults()

		associated, err := f.engine.CheckSubscriptionAssociatedWithUser(ctx, subID, userID, "911")
		require.NoError(t, err)
		assert.True(t, associated)
		f.association.AssertNotCalled(t, "IsAssociated", tmock.Anything, tmock.Anything, tmock.Anything)
	})

	t.Run("AssociatedSubscription", func(t *testing.T) {
		f := newFixture()
		f.association.On("IsAssociated", tmock.Anything, subID, userID).Return(true, nil)
		f.stubDefaults()

		associated, err := f.engine.CheckSubscriptionAssociatedWithUser(ctx, subID, userID, "")
		require.NoError(t, err)
		assert.True(t, associated)
	})

	t.Run("UnknownSubscriptionIsNegativeNotError", func(t *testing.T) {
		f := newFixture()
		wrapped := fmt.Errorf("subscription %d: %w", subID, apierrors.ErrUnknownSubscription)
		f.association.On("IsAssociated", tmock.Anything, subID, userID).Return(false, wrapped)
		f.stubDefaults()

		associated, err := f.engine.CheckSubscriptionAssociatedWithUser(ctx, subID, userID, "")
		require.NoError(t, err)
		assert.False(t, associated)
	})

	t.Run("OtherLookupErrorsPropagate", func(t *testing.T) {
		f := newFixture()
		lookupErr := errors.New("store unavailable")
		f.association.On("IsAssociated", tmock.Anything, subID, userID).Return(false, lookupErr)
		f.stubDefaults()

		associated, err := f.engine.CheckSubscriptionAssociatedWithUser(ctx, subID, userID, "")
		assert.False(t, associated)
		assert.ErrorIs(t, err, lookupErr)
	})
}
