// api/model/telephony.go
package model

import "time"

// Subscription is a SIM subscription known to the device, together with the
// user it is associated with and whether it currently counts as active.
type Subscription struct {
	ID        int       `json:"id"`
	CarrierID string    `json:"carrier_id"`
	UserID    int       `json:"user_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CarrierPrivilegeGrant records carrier-delegated authority: the carrier
// whose certificate signed the app running as UID may act for telephony data
// tied to the subscription.
type CarrierPrivilegeGrant struct {
	ID             string    `json:"id"`
	SubscriptionID int       `json:"subscription_id"`
	UID            int       `json:"uid"`
	CertHash       string    `json:"cert_hash,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// PermissionGrant is a static permission held by a UID.
type PermissionGrant struct {
	ID         string    `json:"id"`
	Permission string    `json:"permission"`
	UID        int       `json:"uid"`
	CreatedAt  time.Time `json:"created_at"`
}

// AppOpSetting is the runtime-revocable operation state layered on top of a
// static grant, keyed by operation, UID and package.
type AppOpSetting struct {
	ID        string    `json:"id"`
	Op        string    `json:"op"`
	UID       int       `json:"uid"`
	Package   string    `json:"package"`
	Mode      string    `json:"mode"` // allowed, errored, ignored, default
	UpdatedAt time.Time `json:"updated_at"`
}

// PackageInfo is the metadata the engine needs about an installed package.
type PackageInfo struct {
	Name           string    `json:"name"`
	UserID         int       `json:"user_id"`
	TargetAPILevel int       `json:"target_api_level"`
	Privileged     bool      `json:"privileged"`
	DeviceOwner    bool      `json:"device_owner"`
	UpdatedAt      time.Time `json:"updated_at"`
}
