// api/service/fact_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/telgate/telgate/api/dao"
	"github.com/telgate/telgate/api/db"
	logger "github.com/telgate/telgate/api/logging"
	"github.com/telgate/telgate/api/model"
	pdp_model "github.com/telgate/telgate/api/pdp/model"
	"github.com/telgate/telgate/api/util"
)

// IFactService manages the fact store the oracles read from.
type IFactService interface {
	UpsertSubscription(ctx context.Context, sub model.Subscription) error
	GetSubscription(ctx context.Context, subID int) (*model.Subscription, error)
	ListActiveSubscriptionIDs(ctx context.Context) ([]int, error)
	AddCarrierPrivilegeGrant(ctx context.Context, grant model.CarrierPrivilegeGrant) (string, error)
	RemoveCarrierPrivilegeGrant(ctx context.Context, subID, uid int) error
	GrantPermission(ctx context.Context, grant model.PermissionGrant) (string, error)
	RevokePermission(ctx context.Context, permission string, uid int) error
	SetAppOpMode(ctx context.Context, setting model.AppOpSetting) (string, error)
	RegisterPackage(ctx context.Context, pkg model.PackageInfo) error
}

// FactService is the write path for telephony facts: subscriptions, carrier
// privilege, permission grants, app-op modes, and packages. Writes invalidate
// the Redis fact caches so decisions see the change immediately.
type FactService struct {
	subscriptionDAO *dao.SubscriptionDAO
	grantDAO        *dao.GrantDAO
	packageDAO      *dao.PackageDAO
	validationUtil  *util.ValidationUtil
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

func NewFactService(
	subscriptionDAO *dao.SubscriptionDAO,
	grantDAO *dao.GrantDAO,
	packageDAO *dao.PackageDAO,
	validationUtil *util.ValidationUtil,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) *FactService {
	service := &FactService{
		subscriptionDAO: subscriptionDAO,
		grantDAO:        grantDAO,
		packageDAO:      packageDAO,
		validationUtil:  validationUtil,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("facts.subscription_changed", service.handleSubscriptionChanged)

	return service
}

var _ IFactService = (*FactService)(nil)

func (s *FactService) handleSubscriptionChanged(ctx context.Context, event util.Event) error {
	subID, ok := event.Payload.(int)
	if !ok {
		logger.Error("Invalid event payload type", zap.Any("payload", event.Payload))
		return nil
	}
	if err := db.InvalidateSubscriptionCaches(ctx, subID); err != nil {
		logger.Error("Failed to invalidate subscription caches",
			zap.Error(err), zap.Int("subscriptionID", subID))
		return err
	}
	return nil
}

func (s *FactService) UpsertSubscription(ctx context.Context, sub model.Subscription) error {
	if err := s.validationUtil.ValidateSubscription(sub); err != nil {
		return err
	}
	if err := s.subscriptionDAO.UpsertSubscription(ctx, sub); err != nil {
		return err
	}
	s.eventBus.Publish(ctx, "facts.subscription_changed", sub.ID)
	if err := s.notificationSvc.NotifySubscriptionChange(ctx, "upserted", sub); err != nil {
		logger.Warn("Failed to send subscription notification", zap.Error(err), zap.Int("subscriptionID", sub.ID))
	}
	return nil
}

func (s *FactService) GetSubscription(ctx context.Context, subID int) (*model.Subscription, error) {
	return s.subscriptionDAO.GetSubscription(ctx, subID)
}

func (s *FactService) ListActiveSubscriptionIDs(ctx context.Context) ([]int, error) {
	return s.subscriptionDAO.ActiveSubscriptionIDs(ctx)
}

func (s *FactService) AddCarrierPrivilegeGrant(ctx context.Context, grant model.CarrierPrivilegeGrant) (string, error) {
	if err := s.validationUtil.ValidateCarrierPrivilegeGrant(grant); err != nil {
		return "", err
	}
	id, err := s.subscriptionDAO.AddCarrierPrivilegeGrant(ctx, grant)
	if err != nil {
		return "", err
	}
	s.eventBus.Publish(ctx, "facts.subscription_changed", grant.SubscriptionID)
	return id, nil
}

func (s *FactService) RemoveCarrierPrivilegeGrant(ctx context.Context, subID, uid int) error {
	if err := s.subscriptionDAO.RemoveCarrierPrivilegeGrant(ctx, subID, uid); err != nil {
		return err
	}
	// Drop the exact cache entry now; the event sweeps the rest of the
	// subscription's keys asynchronously.
	if err := db.DeleteCachedCarrierPrivilegeStatus(ctx, subID, uid); err != nil {
		logger.Warn("Failed to invalidate carrier privilege cache",
			zap.Error(err), zap.Int("subscriptionID", subID), zap.Int("uid", uid))
	}
	s.eventBus.Publish(ctx, "facts.subscription_changed", subID)
	return nil
}

func (s *FactService) GrantPermission(ctx context.Context, grant model.PermissionGrant) (string, error) {
	if err := s.validationUtil.ValidatePermissionGrant(grant); err != nil {
		return "", err
	}
	id, err := s.grantDAO.UpsertPermissionGrant(ctx, grant)
	if err != nil {
		return "", err
	}
	// Granting the privileged permission bypasses every other gate, so it is
	// worth an operator's attention.
	if grant.Permission == pdp_model.PermissionReadPrivilegedPhoneState {
		msg := fmt.Sprintf("privileged phone state permission granted to uid %d", grant.UID)
		if notifyErr := s.notificationSvc.NotifyAdmins(ctx, msg); notifyErr != nil {
			logger.Warn("Failed to notify admins of privileged grant", zap.Error(notifyErr))
		}
	}
	return id, nil
}

func (s *FactService) RevokePermission(ctx context.Context, permission string, uid int) error {
	return s.grantDAO.RevokePermissionGrant(ctx, permission, uid)
}

func (s *FactService) SetAppOpMode(ctx context.Context, setting model.AppOpSetting) (string, error) {
	if err := s.validationUtil.ValidateAppOpSetting(setting); err != nil {
		return "", err
	}
	return s.grantDAO.UpsertAppOpSetting(ctx, setting)
}

func (s *FactService) RegisterPackage(ctx context.Context, pkg model.PackageInfo) error {
	if err := s.validationUtil.ValidatePackageInfo(pkg); err != nil {
		return err
	}
	if err := s.packageDAO.UpsertPackage(ctx, pkg); err != nil {
		return err
	}
	if err := db.DeleteCachedPackageInfo(ctx, pkg.Name, pkg.UserID); err != nil {
		logger.Warn("Failed to invalidate package cache", zap.Error(err), zap.String("package", pkg.Name))
	}
	return nil
}
