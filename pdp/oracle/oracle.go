// pdp/oracle/oracle.go
package oracle

import (
	"context"

	"github.com/telgate/telgate/api/pdp/model"
)

// The engine consumes every collaborator through one of these interfaces so
// tests can substitute fakes without global patching. All implementations
// must be side-effect free from the engine's point of view; any usage
// recording done by an app-op "note" belongs to the oracle, not the engine.

// PermissionOracle answers static permission grants.
type PermissionOracle interface {
	// HasPermission reports whether the permission is granted to the given
	// process.
	HasPermission(name string, pid, uid int) bool
	// HasCallingOrSelfPermission reports whether the permission is granted to
	// the current caller or the service itself.
	HasCallingOrSelfPermission(name string) bool
}

// AppOpOracle answers runtime-revocable operation state. NoteOp records the
// access as a real usage; NoteOpNoThrow is the variant whose denials must
// never surface as failures.
type AppOpOracle interface {
	NoteOp(op string, uid int, pkg, featureID string) model.AppOpMode
	NoteOpNoThrow(op string, uid int, pkg, featureID string) model.AppOpMode
}

// CarrierPrivilegeOracle resolves carrier-delegated authority for a single
// subscription.
type CarrierPrivilegeOracle interface {
	StatusForSubscription(ctx context.Context, subID, uid int) (model.CarrierPrivilegeStatus, error)
}

// SubscriptionEnumerator lists the subscriptions currently active on the
// device. The slice may be empty but never nil.
type SubscriptionEnumerator interface {
	ActiveSubscriptionIDs(ctx context.Context) ([]int, error)
}

// LegacyPermissionOracle is the consolidated legacy permission manager. Each
// call folds target-SDK, permission, ownership, and app-op reasoning into a
// single decision to keep cross-process traffic down.
type LegacyPermissionOracle interface {
	CheckPhoneNumberAccess(ctx context.Context, pkg, message, featureID string, pid, uid int) (model.LegacyDecision, error)
	CheckDeviceIdentifierAccess(ctx context.Context, pkg, message, featureID string, pid, uid int) (model.LegacyDecision, error)
}

// PackageMetadataOracle resolves metadata about an installed package. The
// lookup fails for an unknown or empty package name.
type PackageMetadataOracle interface {
	TargetAPILevel(ctx context.Context, pkg string, userID int) (int, error)
}

// DeviceConfigOracle reads device-wide configuration flags. Production
// implementations gate reads behind READ_DEVICE_CONFIG.
type DeviceConfigOracle interface {
	GetFlag(namespace, key string) (string, bool)
}

// AssociationOracle reports whether a subscription belongs to a user. Lookups
// for subscriptions unknown to the device fail with
// errors.ErrUnknownSubscription.
type AssociationOracle interface {
	IsAssociated(ctx context.Context, subID, userID int) (bool, error)
}

// EmergencyNumberOracle classifies dialed numbers.
type EmergencyNumberOracle interface {
	IsEmergencyNumber(ctx context.Context, number string) bool
}
