// pdp/engine/identifiers.go
package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	apierrors "github.com/telgate/telgate/api/errors"
	logger "github.com/telgate/telgate/api/logging"
	"github.com/telgate/telgate/api/pdp/model"
)

// CheckReadDeviceIdentifiers reports whether the caller may read device-wide
// identifiers (IMEI class data). Default-deny: the legacy permission manager,
// carrier privilege on ANY active subscription, and the plain app-op are the
// only grant paths; everything else funnels into the target-API denial gate.
func (e *Engine) CheckReadDeviceIdentifiers(ctx context.Context, req model.AccessRequest) (bool, error) {
	outcome, err := e.legacyIdentifierCheck(ctx, req)
	if err != nil {
		return false, err
	}
	if outcome == model.OutcomeGranted {
		return true, nil
	}

	has, err := e.hasCarrierPrivilegeOnAnySub(ctx, req.Caller.UID)
	if err != nil {
		return false, err
	}
	if has {
		return true, nil
	}

	// Plain app-op fallback. Independent of subscription enumeration, so an
	// empty active set above must not have short-circuited the chain.
	if req.Caller.Package != "" {
		mode := e.oracles.AppOps.NoteOpNoThrow(
			model.OpReadDeviceIdentifiers, req.Caller.UID, req.Caller.Package, req.Caller.FeatureID)
		if mode == model.AppOpAllowed {
			return true, nil
		}
	}

	return e.reportIdentifierAccessDenied(ctx, req)
}

// CheckReadSubscriberIdentifiers is CheckReadDeviceIdentifiers scoped to one
// subscription: carrier privilege counts only when held on the exact
// subscription requested. Privilege on any other active subscription ends in
// the denial gate.
func (e *Engine) CheckReadSubscriberIdentifiers(ctx context.Context, req model.AccessRequest) (bool, error) {
	outcome, err := e.legacyIdentifierCheck(ctx, req)
	if err != nil {
		return false, err
	}
	if outcome == model.OutcomeGranted {
		return true, nil
	}

	has, err := e.hasCarrierPrivilegeForSub(ctx, req.SubscriptionID, req.Caller.UID)
	if err != nil {
		return false, err
	}
	if has {
		return true, nil
	}

	return e.reportIdentifierAccessDenied(ctx, req)
}

// legacyIdentifierCheck consults the consolidated legacy permission manager,
// which covers UID exemptions, the privileged permission, device and profile
// owner status, and the app-op in one call.
func (e *Engine) legacyIdentifierCheck(ctx context.Context, req model.AccessRequest) (model.CheckOutcome, error) {
	decision, err := e.oracles.Legacy.CheckDeviceIdentifierAccess(
		ctx, req.Caller.Package, req.Message, req.Caller.FeatureID, req.Caller.PID, req.Caller.UID)
	if err != nil {
		return model.OutcomeFallthrough, err
	}
	if decision == model.LegacyGranted {
		return model.OutcomeGranted, nil
	}
	return model.OutcomeFallthrough, nil
}

// reportIdentifierAccessDenied decides how an identifier denial surfaces.
// Packages targeting the modern API level get a hard denial regardless of
// legacy grants unless the device-wide override flag is set; pre-modern
// packages holding READ_PHONE_STATE fail silently to keep old apps working.
// A request with no package name can never use the legacy fallback, so it is
// always a hard denial.
func (e *Engine) reportIdentifierAccessDenied(ctx context.Context, req model.AccessRequest) (bool, error) {
	if req.Caller.Package == "" {
		logger.Warn("Identifier access denied for caller without package name",
			zap.Int("uid", req.Caller.UID),
			zap.Int("subscriptionID", req.SubscriptionID))
		return false, denied(req.Message)
	}

	targetAPI, err := e.oracles.Packages.TargetAPILevel(ctx, req.Caller.Package, req.Caller.UserID)
	if err != nil {
		if errors.Is(err, apierrors.ErrPackageNotFound) || errors.Is(err, apierrors.ErrNilPackageName) {
			// Unknown package: no legacy eligibility can be established.
			logger.Warn("Unknown package during identifier denial",
				zap.String("package", req.Caller.Package),
				zap.Int("userID", req.Caller.UserID),
				zap.Error(err))
			return false, denied(req.Message)
		}
		return false, err
	}

	if targetAPI < model.ModernTargetAPILevel || e.identifierRestrictionsDisabled() {
		if e.oracles.Permissions.HasPermission(model.PermissionReadPhoneState, req.Caller.PID, req.Caller.UID) {
			return false, nil
		}
	}

	logger.Warn("Identifier access denied",
		zap.String("package", req.Caller.Package),
		zap.Int("uid", req.Caller.UID),
		zap.Int("targetAPI", targetAPI))
	return false, denied(req.Message)
}

// identifierRestrictionsDisabled reads the device-wide override flag. The
// configuration store is gated behind READ_DEVICE_CONFIG; a caller scope
// without it sees the restrictions as enabled.
func (e *Engine) identifierRestrictionsDisabled() bool {
	if !e.oracles.Permissions.HasCallingOrSelfPermission(model.PermissionReadDeviceConfig) {
		return false
	}
	value, ok := e.oracles.DeviceConfig.GetFlag(
		model.DeviceConfigNamespacePrivacy, model.FlagIdentifierAccessRestrictionsOff)
	if !ok {
		return false
	}
	return flagEnabled(value)
}

func flagEnabled(value string) bool {
	if strings.EqualFold(value, "true") {
		return true
	}
	n, err := strconv.Atoi(value)
	return err == nil && n != 0
}
