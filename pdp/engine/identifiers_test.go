// pdp/engine/identifiers_test.go
package engine_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/telgate/telgate/api/errors"
	"github.com/telgate/telgate/api/pdp/model"
)

func TestCheckReadDeviceIdentifiers(t *testing.T) {
	ctx := context.Background()

	t.Run("GrantedByLegacyManager", func(t *testing.T) {
		f := newFixture()
		f.legacy.On("CheckDeviceIdentifierAccess", tmock.Anything, pkgName, message, feature, pid, uid).Return(model.LegacyGranted, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadDeviceIdentifiers(ctx, request())
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("GrantedWithCarrierPrivilegeOnAnotherActiveSub", func(t *testing.T) {
		// Device-wide identifiers accept privilege on any active subscription,
		// including one other than the requested.
		f := newFixture()
		f.subscriptions.On("ActiveSubscriptionIDs", tmock.Anything).Return([]int{subID2}, nil)
		f.carrier.On("StatusForSubscription", tmock.Anything, subID2, uid).Return(model.CarrierPrivilegeHasAccess, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadDeviceIdentifiers(ctx, request())
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("GrantedWithIdentifierAppOp", func(t *testing.T) {
		f := newFixture()
		f.subscriptions.On("ActiveSubscriptionIDs", tmock.Anything).Return([]int{}, nil)
		f.appOps.On("NoteOpNoThrow", model.OpReadDeviceIdentifiers, uid, pkgName, feature).Return(model.AppOpAllowed)
		f.stubDefaults()

		granted, err := f.engine.CheckReadDeviceIdentifiers(ctx, request())
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("DeniedForModernTarget", func(t *testing.T) {
		f := newFixture()
		f.packages.On("TargetAPILevel", tmock.Anything, pkgName, userID).Return(model.ModernTargetAPILevel, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadDeviceIdentifiers(ctx, request())
		assertHardDenial(t, granted, err)
	})

	t.Run("SilentDenyForLegacyTargetWithPhoneStatePermission", func(t *testing.T) {
		f := newFixture()
		f.packages.On("TargetAPILevel", tmock.Anything, pkgName, userID).Return(model.LegacyTargetAPILevel, nil)
		f.permissions.On("HasPermission", model.PermissionReadPhoneState, pid, uid).Return(true)
		f.appOps.On("NoteOpNoThrow", model.OpReadDeviceIdentifiers, uid, pkgName, feature).Return(model.AppOpErrored)
		f.stubDefaults()

		granted, err := f.engine.CheckReadDeviceIdentifiers(ctx, request())
		require.NoError(t, err)
		assert.False(t, granted)
	})

	t.Run("DeniedForLegacyTargetWithoutPhoneStatePermission", func(t *testing.T) {
		f := newFixture()
		f.packages.On("TargetAPILevel", tmock.Anything, pkgName, userID).Return(model.LegacyTargetAPILevel, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadDeviceIdentifiers(ctx, request())
		assertHardDenial(t, granted, err)
	})

	t.Run("SilentDenyForModernTargetWhenRestrictionsDisabled", func(t *testing.T) {
		f := newFixture()
		f.packages.On("TargetAPILevel", tmock.Anything, pkgName, userID).Return(model.ModernTargetAPILevel, nil)
		f.permissions.On("HasCallingOrSelfPermission", model.PermissionReadDeviceConfig).Return(true)
		f.deviceConfig.On("GetFlag", model.DeviceConfigNamespacePrivacy, model.FlagIdentifierAccessRestrictionsOff).Return("1", true)
		f.permissions.On("HasPermission", model.PermissionReadPhoneState, pid, uid).Return(true)
		f.appOps.On("NoteOpNoThrow", model.OpReadDeviceIdentifiers, uid, pkgName, feature).Return(model.AppOpErrored)
		f.stubDefaults()

		granted, err := f.engine.CheckReadDeviceIdentifiers(ctx, request())
		require.NoError(t, err)
		assert.False(t, granted)
	})

	t.Run("DeniedWhenOverrideFlagSetWithoutConfigPermission", func(t *testing.T) {
		// The override flag only counts when the caller scope may read device
		// configuration.
		f := newFixture()
		f.packages.On("TargetAPILevel", tmock.Anything, pkgName, userID).Return(model.ModernTargetAPILevel, nil)
		f.deviceConfig.On("GetFlag", model.DeviceConfigNamespacePrivacy, model.FlagIdentifierAccessRestrictionsOff).Return("true", true).Maybe()
		f.permissions.On("HasPermission", model.PermissionReadPhoneState, pid, uid).Return(true).Maybe()
		f.stubDefaults()

		granted, err := f.engine.CheckReadDeviceIdentifiers(ctx, request())
		assertHardDenial(t, granted, err)
	})

	t.Run("DeniedWithoutPackageName", func(t *testing.T) {
		f := newFixture()
		f.stubDefaults()

		req := request()
		req.Caller.Package = ""
		granted, err := f.engine.CheckReadDeviceIdentifiers(ctx, req)
		assertHardDenial(t, granted, err)
		f.packages.AssertNotCalled(t, "TargetAPILevel", tmock.Anything, tmock.Anything, tmock.Anything)
	})

	t.Run("DeniedWhenPackageUnknown", func(t *testing.T) {
		f := newFixture()
		f.packages.On("TargetAPILevel", tmock.Anything, pkgName, userID).
			Return(0, fmt.Errorf("package %q: %w", pkgName, apierrors.ErrPackageNotFound))
		f.stubDefaults()

		granted, err := f.engine.CheckReadDeviceIdentifiers(ctx, request())
		assert.False(t, granted)
		require.Error(t, err)
		assert.ErrorIs(t, err, apierrors.ErrAccessDenied)
	})

	t.Run("PackageLookupErrorPropagates", func(t *testing.T) {
		f := newFixture()
		lookupErr := errors.New("package store unavailable")
		f.packages.On("TargetAPILevel", tmock.Anything, pkgName, userID).Return(0, lookupErr)
		f.stubDefaults()

		granted, err := f.engine.CheckReadDeviceIdentifiers(ctx, request())
		assert.False(t, granted)
		require.Error(t, err)
		assert.ErrorIs(t, err, lookupErr)
		assert.NotErrorIs(t, err, apierrors.ErrAccessDenied)
	})
}

func TestCheckReadSubscriberIdentifiers(t *testing.T) {
	ctx := context.Background()

	t.Run("GrantedByLegacyManager", func(t *testing.T) {
		f := newFixture()
		f.legacy.On("CheckDeviceIdentifierAccess", tmock.Anything, pkgName, message, feature, pid, uid).Return(model.LegacyGranted, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadSubscriberIdentifiers(ctx, request())
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("GrantedWithCarrierPrivilegeOnExactSub", func(t *testing.T) {
		f := newFixture()
		f.carrier.On("StatusForSubscription", tmock.Anything, subID, uid).Return(model.CarrierPrivilegeHasAccess, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadSubscriberIdentifiers(ctx, request())
		require.NoError(t, err)
		assert.True(t, granted)
	})

	t.Run("DeniedWithCarrierPrivilegeOnOtherSubOnly", func(t *testing.T) {
		// Unlike the device-wide check, subscriber identifiers require
		// privilege on the exact subscription requested.
		f := newFixture()
		f.carrier.On("StatusForSubscription", tmock.Anything, subID, uid).Return(model.CarrierPrivilegeNoAccess, nil)
		f.carrier.On("StatusForSubscription", tmock.Anything, subID2, uid).Return(model.CarrierPrivilegeHasAccess, nil).Maybe()
		f.packages.On("TargetAPILevel", tmock.Anything, pkgName, userID).Return(model.ModernTargetAPILevel, nil)
		f.stubDefaults()

		granted, err := f.engine.CheckReadSubscriberIdentifiers(ctx, request())
		assertHardDenial(t, granted, err)
	})

	t.Run("SilentDenyForLegacyTargetWithPhoneStatePermission", func(t *testing.T) {
		f := newFixture()
		f.packages.On("TargetAPILevel", tmock.Anything, pkgName, userID).Return(model.LegacyTargetAPILevel, nil)
		f.permissions.On("HasPermission", model.PermissionReadPhoneState, pid, uid).Return(true)
		f.stubDefaults()

		granted, err := f.engine.CheckReadSubscriberIdentifiers(ctx, request())
		require.NoError(t, err)
		assert.False(t, granted)
	})
}
