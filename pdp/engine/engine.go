// pdp/engine/engine.go
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apierrors "github.com/telgate/telgate/api/errors"
	logger "github.com/telgate/telgate/api/logging"
	"github.com/telgate/telgate/api/pdp/model"
	"github.com/telgate/telgate/api/pdp/oracle"
)

// Oracles bundles every collaborator the engine consults. All fields are
// required unless noted otherwise.
type Oracles struct {
	Permissions   oracle.PermissionOracle
	AppOps        oracle.AppOpOracle
	Carrier       oracle.CarrierPrivilegeOracle
	Subscriptions oracle.SubscriptionEnumerator
	Legacy        oracle.LegacyPermissionOracle
	Packages      oracle.PackageMetadataOracle
	DeviceConfig  oracle.DeviceConfigOracle
	Association   oracle.AssociationOracle
	Emergency     oracle.EmergencyNumberOracle
}

// Engine arbitrates read access to telephony-identifying data. Every check is
// an ordered precedence chain over the injected oracles: the first step that
// grants or silently denies wins, and a chain that falls through every step
// ends in a hard denial. The engine holds no mutable state, so a single
// instance is safe for concurrent use.
type Engine struct {
	oracles Oracles
}

func NewEngine(oracles Oracles) *Engine {
	return &Engine{oracles: oracles}
}

// checkFn is one step of a precedence chain.
type checkFn func(ctx context.Context) (model.CheckOutcome, error)

// runChain evaluates steps in order, short-circuiting on the first grant or
// silent denial. Falling through every step is a hard denial carrying only
// the caller-supplied message, never the identity of the failing step.
func (e *Engine) runChain(ctx context.Context, message string, checks ...checkFn) (bool, error) {
	for _, check := range checks {
		outcome, err := check(ctx)
		if err != nil {
			return false, err
		}
		switch outcome {
		case model.OutcomeGranted:
			return true, nil
		case model.OutcomeSilentDeny:
			return false, nil
		}
	}
	return false, denied(message)
}

// runChainSilent is runChain for procedures that must never produce a hard
// denial: exhausting the chain returns false.
func (e *Engine) runChainSilent(ctx context.Context, checks ...checkFn) (bool, error) {
	for _, check := range checks {
		outcome, err := check(ctx)
		if err != nil {
			return false, err
		}
		switch outcome {
		case model.OutcomeGranted:
			return true, nil
		case model.OutcomeSilentDeny:
			return false, nil
		}
	}
	return false, nil
}

func denied(message string) error {
	if message == "" {
		return apierrors.ErrAccessDenied
	}
	return fmt.Errorf("%s: %w", message, apierrors.ErrAccessDenied)
}

// CheckReadPhoneState reports whether the caller may read phone state for the
// requested subscription. It returns true for privileged callers, callers
// holding READ_PHONE_STATE with the matching app-op, and carrier-privileged
// callers; it returns false without error for callers holding the permission
// but not the app-op, and a hard denial otherwise.
func (e *Engine) CheckReadPhoneState(ctx context.Context, req model.AccessRequest) (bool, error) {
	return e.runChain(ctx, req.Message,
		e.privilegedPhoneStateCheck(req.Caller),
		e.phoneStatePermissionCheck(req.Caller),
		e.carrierPrivilegeCheck(req.SubscriptionID, req.Caller.UID),
	)
}

// CheckReadPhoneStateOnAnyActiveSub is CheckReadPhoneState with the carrier
// step widened to every active subscription. It never produces a hard denial:
// with no permissions and no privilege on any active subscription, including
// when none are active, it returns false.
func (e *Engine) CheckReadPhoneStateOnAnyActiveSub(ctx context.Context, caller model.CallerIdentity, message string) (bool, error) {
	return e.runChainSilent(ctx,
		e.privilegedPhoneStateCheck(caller),
		e.phoneStatePermissionCheck(caller),
		e.carrierPrivilegeAnySubCheck(caller.UID),
	)
}

// CheckReadPhoneNumber reports whether the caller may read the phone number
// for the requested subscription. The legacy permission manager folds the
// target-SDK, permission, and app-op reasoning into one decision; the engine
// only layers the carrier-privilege fallback on top.
func (e *Engine) CheckReadPhoneNumber(ctx context.Context, req model.AccessRequest) (bool, error) {
	return e.runChain(ctx, req.Message,
		func(ctx context.Context) (model.CheckOutcome, error) {
			decision, err := e.oracles.Legacy.CheckPhoneNumberAccess(
				ctx, req.Caller.Package, req.Message, req.Caller.FeatureID, req.Caller.PID, req.Caller.UID)
			if err != nil {
				return model.OutcomeFallthrough, err
			}
			switch decision {
			case model.LegacyGranted:
				return model.OutcomeGranted, nil
			case model.LegacyIgnored:
				return model.OutcomeSilentDeny, nil
			}
			return model.OutcomeFallthrough, nil
		},
		e.carrierPrivilegeCheck(req.SubscriptionID, req.Caller.UID),
	)
}

// EnforceReadPrecisePhoneStateOrCarrierPrivilege returns nil when the caller
// holds READ_PRIVILEGED_PHONE_STATE or READ_PRECISE_PHONE_STATE in the
// calling-or-self scope, or carrier privilege on the subscription. Otherwise
// it returns a hard denial.
func (e *Engine) EnforceReadPrecisePhoneStateOrCarrierPrivilege(ctx context.Context, subID int, uid int, message string) error {
	if e.oracles.Permissions.HasCallingOrSelfPermission(model.PermissionReadPrivilegedPhoneState) {
		return nil
	}
	if e.oracles.Permissions.HasCallingOrSelfPermission(model.PermissionReadPrecisePhoneState) {
		return nil
	}
	has, err := e.hasCarrierPrivilegeForSub(ctx, subID, uid)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	return denied(message)
}

// CheckSubscriptionAssociatedWithUser reports whether the subscription
// belongs to the user. Emergency numbers are associated unconditionally; a
// subscription unknown to the device is a negative answer, not a failure.
func (e *Engine) CheckSubscriptionAssociatedWithUser(ctx context.Context, subID, userID int, number string) (bool, error) {
	if number != "" && e.oracles.Emergency.IsEmergencyNumber(ctx, number) {
		return true, nil
	}
	associated, err := e.oracles.Association.IsAssociated(ctx, subID, userID)
	if err != nil {
		if errors.Is(err, apierrors.ErrUnknownSubscription) {
			logger.Warn("Subscription has no record on device",
				zap.Int("subscriptionID", subID),
				zap.Int("userID", userID))
			return false, nil
		}
		return false, err
	}
	return associated, nil
}

// Shared chain steps.

func (e *Engine) privilegedPhoneStateCheck(caller model.CallerIdentity) checkFn {
	return func(ctx context.Context) (model.CheckOutcome, error) {
		if e.oracles.Permissions.HasPermission(model.PermissionReadPrivilegedPhoneState, caller.PID, caller.UID) {
			return model.OutcomeGranted, nil
		}
		return model.OutcomeFallthrough, nil
	}
}

// phoneStatePermissionCheck is terminal for callers holding READ_PHONE_STATE:
// the permission without the app-op degrades silently rather than falling
// through to carrier privilege.
func (e *Engine) phoneStatePermissionCheck(caller model.CallerIdentity) checkFn {
	return func(ctx context.Context) (model.CheckOutcome, error) {
		if !e.oracles.Permissions.HasPermission(model.PermissionReadPhoneState, caller.PID, caller.UID) {
			return model.OutcomeFallthrough, nil
		}
		mode := e.oracles.AppOps.NoteOpNoThrow(model.OpReadPhoneState, caller.UID, caller.Package, caller.FeatureID)
		if mode == model.AppOpAllowed {
			return model.OutcomeGranted, nil
		}
		return model.OutcomeSilentDeny, nil
	}
}

func (e *Engine) carrierPrivilegeCheck(subID, uid int) checkFn {
	return func(ctx context.Context) (model.CheckOutcome, error) {
		has, err := e.hasCarrierPrivilegeForSub(ctx, subID, uid)
		if err != nil {
			return model.OutcomeFallthrough, err
		}
		if has {
			return model.OutcomeGranted, nil
		}
		return model.OutcomeFallthrough, nil
	}
}

func (e *Engine) carrierPrivilegeAnySubCheck(uid int) checkFn {
	return func(ctx context.Context) (model.CheckOutcome, error) {
		has, err := e.hasCarrierPrivilegeOnAnySub(ctx, uid)
		if err != nil {
			return model.OutcomeFallthrough, err
		}
		if has {
			return model.OutcomeGranted, nil
		}
		return model.OutcomeFallthrough, nil
	}
}

func (e *Engine) hasCarrierPrivilegeForSub(ctx context.Context, subID, uid int) (bool, error) {
	status, err := e.oracles.Carrier.StatusForSubscription(ctx, subID, uid)
	if err != nil {
		return false, err
	}
	return status == model.CarrierPrivilegeHasAccess, nil
}

// hasCarrierPrivilegeOnAnySub scans every active subscription. An empty
// active set is an ordinary negative answer.
func (e *Engine) hasCarrierPrivilegeOnAnySub(ctx context.Context, uid int) (bool, error) {
	subIDs, err := e.oracles.Subscriptions.ActiveSubscriptionIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, subID := range subIDs {
		has, err := e.hasCarrierPrivilegeForSub(ctx, subID, uid)
		if err != nil {
			return false, err
		}
		if has {
			return true, nil
		}
	}
	return false, nil
}
