// api/provider/legacy.go
package provider

import (
	"context"
	"errors"

	"github.com/telgate/telgate/api/dao"
	apierrors "github.com/telgate/telgate/api/errors"
	"github.com/telgate/telgate/api/pdp/model"
)

// Apps targeting this API level or later need READ_PHONE_NUMBERS (or better)
// for phone numbers; READ_PHONE_STATE alone only satisfies older targets.
const phoneNumberTargetAPILevel = 30

// Platform UIDs exempt from the device identifier restrictions.
var exemptUIDs = map[int]struct{}{
	0:    {}, // root
	1000: {}, // system
	1001: {}, // telephony
}

// LegacyPermissionService is the consolidated legacy permission manager. It
// folds target-SDK, permission, ownership, and app-op reasoning into single
// decisions so the engine makes one call instead of four.
type LegacyPermissionService struct {
	grants   *dao.GrantDAO
	packages *dao.PackageDAO
	appOps   *AppOpStore
}

func NewLegacyPermissionService(grants *dao.GrantDAO, packages *dao.PackageDAO, appOps *AppOpStore) *LegacyPermissionService {
	return &LegacyPermissionService{grants: grants, packages: packages, appOps: appOps}
}

// CheckPhoneNumberAccess decides phone number access for a package. Apps
// targeting below the phone-number threshold succeed on READ_PHONE_STATE with
// the op allowed, and fail silently (ignored) when only the op is missing;
// newer targets need READ_PHONE_NUMBERS.
func (l *LegacyPermissionService) CheckPhoneNumberAccess(ctx context.Context, pkg, message, featureID string, pid, uid int) (model.LegacyDecision, error) {
	if has, err := l.grants.HasPermission(ctx, model.PermissionReadPrivilegedPhoneState, uid); err != nil {
		return model.LegacyDenied, err
	} else if has {
		return model.LegacyGranted, nil
	}

	if has, err := l.grants.HasPermission(ctx, model.PermissionReadPhoneNumbers, uid); err != nil {
		return model.LegacyDenied, err
	} else if has {
		if l.appOps.NoteOpNoThrow(model.OpReadPhoneNumbers, uid, pkg, featureID) == model.AppOpAllowed {
			return model.LegacyGranted, nil
		}
		return model.LegacyIgnored, nil
	}

	has, err := l.grants.HasPermission(ctx, model.PermissionReadPhoneState, uid)
	if err != nil {
		return model.LegacyDenied, err
	}
	if !has {
		return model.LegacyDenied, nil
	}

	targetAPI, err := l.targetAPILevel(ctx, pkg, uid)
	if err != nil {
		return model.LegacyDenied, err
	}
	if targetAPI >= phoneNumberTargetAPILevel {
		// READ_PHONE_STATE stopped covering phone numbers at this target.
		return model.LegacyDenied, nil
	}
	if l.appOps.NoteOpNoThrow(model.OpReadPhoneState, uid, pkg, featureID) == model.AppOpAllowed {
		return model.LegacyGranted, nil
	}
	return model.LegacyIgnored, nil
}

// CheckDeviceIdentifierAccess decides device identifier access for a
// package: UID exemptions, the privileged permission, privileged or
// device-owner packages, and the identifier app-op, in that order.
func (l *LegacyPermissionService) CheckDeviceIdentifierAccess(ctx context.Context, pkg, message, featureID string, pid, uid int) (model.LegacyDecision, error) {
	if _, exempt := exemptUIDs[uid]; exempt {
		return model.LegacyGranted, nil
	}

	if has, err := l.grants.HasPermission(ctx, model.PermissionReadPrivilegedPhoneState, uid); err != nil {
		return model.LegacyDenied, err
	} else if has {
		return model.LegacyGranted, nil
	}

	if pkg != "" {
		info, err := l.packages.GetPackage(ctx, pkg, userIDForUID(uid))
		if err != nil && !errors.Is(err, apierrors.ErrPackageNotFound) {
			return model.LegacyDenied, err
		}
		if info != nil && (info.Privileged || info.DeviceOwner) {
			return model.LegacyGranted, nil
		}
		if l.appOps.NoteOpNoThrow(model.OpReadDeviceIdentifiers, uid, pkg, featureID) == model.AppOpAllowed {
			return model.LegacyGranted, nil
		}
	}
	return model.LegacyDenied, nil
}

func (l *LegacyPermissionService) targetAPILevel(ctx context.Context, pkg string, uid int) (int, error) {
	if pkg == "" {
		return 0, apierrors.ErrNilPackageName
	}
	info, err := l.packages.GetPackage(ctx, pkg, userIDForUID(uid))
	if err != nil {
		return 0, err
	}
	return info.TargetAPILevel, nil
}

// userIDForUID recovers the user a UID runs under. UIDs are partitioned per
// user in blocks of 100000, matching the platform convention.
func userIDForUID(uid int) int {
	return uid / 100000
}
