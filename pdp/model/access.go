// pdp/model/access.go
package model

// Permission names understood by the permission oracle. Grants are static;
// runtime revocation is layered on top through app-ops.
const (
	PermissionReadPhoneState           = "READ_PHONE_STATE"
	PermissionReadPrivilegedPhoneState = "READ_PRIVILEGED_PHONE_STATE"
	PermissionReadPrecisePhoneState    = "READ_PRECISE_PHONE_STATE"
	PermissionReadPhoneNumbers         = "READ_PHONE_NUMBERS"
	PermissionReadDeviceConfig         = "READ_DEVICE_CONFIG"
)

// App-op names. Each maps to a runtime-revocable operation layered on the
// static permission of the same concern.
const (
	OpReadPhoneState        = "android:read_phone_state"
	OpReadPhoneNumbers      = "android:read_phone_numbers"
	OpReadDeviceIdentifiers = "android:read_device_identifiers"
)

// Target API levels relevant to identifier gating. Packages targeting
// ModernTargetAPILevel or later lose the legacy permission-only fallback for
// device and subscriber identifiers.
const (
	LegacyTargetAPILevel = 28
	ModernTargetAPILevel = 29
)

// Device configuration flag that disables the strict identifier gating for
// modern-targeting packages. Reading it requires READ_DEVICE_CONFIG.
const (
	DeviceConfigNamespacePrivacy        = "privacy"
	FlagIdentifierAccessRestrictionsOff = "device_identifier_access_restrictions_disabled"
)

// SubscriptionIDInvalid marks requests that are not scoped to a particular
// subscription.
const SubscriptionIDInvalid = -1

// AppOpMode is the tri-state answer of the app-op oracle.
type AppOpMode int

const (
	AppOpAllowed AppOpMode = iota
	AppOpErrored
	// AppOpIgnored means the caller should fail silently: placeholder data,
	// no security failure.
	AppOpIgnored
	AppOpDefault
)

func (m AppOpMode) String() string {
	switch m {
	case AppOpAllowed:
		return "allowed"
	case AppOpErrored:
		return "errored"
	case AppOpIgnored:
		return "ignored"
	default:
		return "default"
	}
}

// CarrierPrivilegeStatus is the answer of the carrier-privilege oracle for a
// (subscription, uid) pair.
type CarrierPrivilegeStatus int

const (
	CarrierPrivilegeNoAccess CarrierPrivilegeStatus = iota
	CarrierPrivilegeHasAccess
	CarrierPrivilegeRulesNotLoaded
)

func (s CarrierPrivilegeStatus) String() string {
	switch s {
	case CarrierPrivilegeHasAccess:
		return "has_access"
	case CarrierPrivilegeRulesNotLoaded:
		return "rules_not_loaded"
	default:
		return "no_access"
	}
}

// LegacyDecision is returned by the consolidated legacy permission manager,
// which folds target-SDK, permission, and app-op reasoning into one call.
type LegacyDecision int

const (
	LegacyDenied LegacyDecision = iota
	LegacyGranted
	// LegacyIgnored mirrors AppOpIgnored: deny silently, no security failure.
	LegacyIgnored
)

func (d LegacyDecision) String() string {
	switch d {
	case LegacyGranted:
		return "granted"
	case LegacyIgnored:
		return "ignored"
	default:
		return "denied"
	}
}

// CallerIdentity identifies the process asking for telephony data. Immutable
// for the duration of a check.
type CallerIdentity struct {
	PID       int    `json:"pid"`
	UID       int    `json:"uid"`
	UserID    int    `json:"user_id"`
	Package   string `json:"package"`
	FeatureID string `json:"feature_id,omitempty"`
}

// AccessRequest scopes a caller to a subscription and carries the message
// attached to any resulting security failure.
type AccessRequest struct {
	Caller         CallerIdentity `json:"caller"`
	SubscriptionID int            `json:"subscription_id"`
	Message        string         `json:"message"`
}
