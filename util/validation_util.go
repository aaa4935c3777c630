// api/util/validation_util.go

package util

import (
	"fmt"

	apierrors "github.com/telgate/telgate/api/errors"
	"github.com/telgate/telgate/api/model"
	pdp_model "github.com/telgate/telgate/api/pdp/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

func (v *ValidationUtil) ValidateAccessRequest(req pdp_model.AccessRequest) error {
	if req.Caller.UID < 0 {
		return fmt.Errorf("caller uid cannot be negative: %w", apierrors.ErrInvalidAccessRequest)
	}
	if req.Caller.PID < 0 {
		return fmt.Errorf("caller pid cannot be negative: %w", apierrors.ErrInvalidAccessRequest)
	}
	if req.SubscriptionID == 0 {
		return fmt.Errorf("access request must name a subscription: %w", apierrors.ErrInvalidAccessRequest)
	}
	return nil
}

func (v *ValidationUtil) ValidateSubscription(sub model.Subscription) error {
	if sub.ID <= 0 {
		return fmt.Errorf("subscription id must be positive")
	}
	if sub.CarrierID == "" {
		return fmt.Errorf("subscription carrier id cannot be empty")
	}
	if sub.UserID < 0 {
		return fmt.Errorf("subscription user id cannot be negative")
	}
	return nil
}

func (v *ValidationUtil) ValidateCarrierPrivilegeGrant(grant model.CarrierPrivilegeGrant) error {
	if grant.SubscriptionID <= 0 {
		return fmt.Errorf("grant subscription id must be positive")
	}
	if grant.UID < 0 {
		return fmt.Errorf("grant uid cannot be negative")
	}
	return nil
}

func (v *ValidationUtil) ValidatePermissionGrant(grant model.PermissionGrant) error {
	if grant.Permission == "" {
		return fmt.Errorf("permission name cannot be empty")
	}
	if grant.UID < 0 {
		return fmt.Errorf("grant uid cannot be negative")
	}
	return nil
}

func (v *ValidationUtil) ValidateAppOpSetting(setting model.AppOpSetting) error {
	if setting.Op == "" {
		return fmt.Errorf("app-op name cannot be empty")
	}
	if setting.Package == "" {
		return fmt.Errorf("app-op package cannot be empty")
	}
	switch setting.Mode {
	case "allowed", "errored", "ignored", "default":
	default:
		return fmt.Errorf("app-op mode must be one of allowed, errored, ignored, default")
	}
	return nil
}

func (v *ValidationUtil) ValidatePackageInfo(pkg model.PackageInfo) error {
	if pkg.Name == "" {
		return fmt.Errorf("package name cannot be empty")
	}
	if pkg.UserID < 0 {
		return fmt.Errorf("package user id cannot be negative")
	}
	if pkg.TargetAPILevel <= 0 {
		return fmt.Errorf("package target api level must be positive")
	}
	return nil
}
