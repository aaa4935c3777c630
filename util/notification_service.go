// api/util/notification_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/telgate/telgate/api/logging"
	"github.com/telgate/telgate/api/model"
	pdp_model "github.com/telgate/telgate/api/pdp/model"
)

type NotificationService struct {
	// You might want to add dependencies here, such as a message queue client
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) NotifySubscriptionChange(ctx context.Context, changeType string, sub model.Subscription) error {
	switch changeType {
	case "upserted":
		logger.Info("NOTIFICATION: Subscription upserted",
			zap.Int("subscriptionID", sub.ID),
			zap.String("carrierID", sub.CarrierID),
			zap.Bool("active", sub.Active))
	case "deactivated":
		logger.Info("NOTIFICATION: Subscription deactivated",
			zap.Int("subscriptionID", sub.ID))
	default:
		return fmt.Errorf("unknown change type: %s", changeType)
	}
	return nil
}

// NotifyIdentifierDenial flags a hard identifier denial to operators. Modern
// apps hitting this path usually mean a misconfigured fleet, not an attack.
func (n *NotificationService) NotifyIdentifierDenial(ctx context.Context, decision pdp_model.AccessDecision, caller pdp_model.CallerIdentity) error {
	logger.Warn("NOTIFICATION: Identifier access denied",
		zap.String("check", decision.Check),
		zap.String("package", caller.Package),
		zap.Int("uid", caller.UID),
		zap.Int("subscriptionID", decision.SubscriptionID))
	return nil
}

func (n *NotificationService) NotifyAdmins(ctx context.Context, message string) error {
	// Logic to notify all system administrators
	logger.Info("Notifying admins", zap.String("message", message))
	return nil
}
