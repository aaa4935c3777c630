// api/service/access_service.go
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/telgate/telgate/api/audit"
	apierrors "github.com/telgate/telgate/api/errors"
	logger "github.com/telgate/telgate/api/logging"
	"github.com/telgate/telgate/api/pdp/engine"
	pdp_model "github.com/telgate/telgate/api/pdp/model"
	"github.com/telgate/telgate/api/provider"
	"github.com/telgate/telgate/api/util"
)

// IAccessService is the decision surface consumed by the controllers.
type IAccessService interface {
	CheckReadPhoneState(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error)
	CheckReadPhoneStateOnAnyActiveSub(ctx context.Context, caller pdp_model.CallerIdentity, message string) (pdp_model.AccessDecision, error)
	CheckReadPhoneNumber(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error)
	CheckReadDeviceIdentifiers(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error)
	CheckReadSubscriberIdentifiers(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error)
	EnforcePrecisePhoneState(ctx context.Context, req pdp_model.AccessRequest) error
	CheckSubscriptionAssociatedWithUser(ctx context.Context, subID, userID int, number string) (bool, error)
}

// AccessService runs the decision engine for a caller and records the
// outcome. The engine's permission scope is rebuilt per request so
// calling-or-self checks see the actual caller; everything else is shared.
type AccessService struct {
	oracles         engine.Oracles
	permissions     *provider.PermissionStore
	validationUtil  *util.ValidationUtil
	auditService    audit.Service
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

func NewAccessService(
	oracles engine.Oracles,
	permissions *provider.PermissionStore,
	validationUtil *util.ValidationUtil,
	auditService audit.Service,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) *AccessService {
	return &AccessService{
		oracles:         oracles,
		permissions:     permissions,
		validationUtil:  validationUtil,
		auditService:    auditService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}
}

var _ IAccessService = (*AccessService)(nil)

func (s *AccessService) engineFor(caller pdp_model.CallerIdentity) *engine.Engine {
	oracles := s.oracles
	oracles.Permissions = s.permissions.ForCaller(caller.PID, caller.UID)
	return engine.NewEngine(oracles)
}

func (s *AccessService) CheckReadPhoneState(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error) {
	if err := s.validationUtil.ValidateAccessRequest(req); err != nil {
		return pdp_model.AccessDecision{}, err
	}
	granted, err := s.engineFor(req.Caller).CheckReadPhoneState(ctx, req)
	return s.record(ctx, "read_phone_state", req, granted, err)
}

func (s *AccessService) CheckReadPhoneStateOnAnyActiveSub(ctx context.Context, caller pdp_model.CallerIdentity, message string) (pdp_model.AccessDecision, error) {
	req := pdp_model.AccessRequest{Caller: caller, SubscriptionID: pdp_model.SubscriptionIDInvalid, Message: message}
	granted, err := s.engineFor(caller).CheckReadPhoneStateOnAnyActiveSub(ctx, caller, message)
	return s.record(ctx, "read_phone_state_any_active_sub", req, granted, err)
}

func (s *AccessService) CheckReadPhoneNumber(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error) {
	if err := s.validationUtil.ValidateAccessRequest(req); err != nil {
		return pdp_model.AccessDecision{}, err
	}
	granted, err := s.engineFor(req.Caller).CheckReadPhoneNumber(ctx, req)
	return s.record(ctx, "read_phone_number", req, granted, err)
}

func (s *AccessService) CheckReadDeviceIdentifiers(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error) {
	if err := s.validationUtil.ValidateAccessRequest(req); err != nil {
		return pdp_model.AccessDecision{}, err
	}
	granted, err := s.engineFor(req.Caller).CheckReadDeviceIdentifiers(ctx, req)
	decision, err := s.record(ctx, "read_device_identifiers", req, granted, err)
	s.flagIdentifierDenial(ctx, decision, req.Caller, err)
	return decision, err
}

func (s *AccessService) CheckReadSubscriberIdentifiers(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error) {
	if err := s.validationUtil.ValidateAccessRequest(req); err != nil {
		return pdp_model.AccessDecision{}, err
	}
	granted, err := s.engineFor(req.Caller).CheckReadSubscriberIdentifiers(ctx, req)
	decision, err := s.record(ctx, "read_subscriber_identifiers", req, granted, err)
	s.flagIdentifierDenial(ctx, decision, req.Caller, err)
	return decision, err
}

// flagIdentifierDenial surfaces hard identifier denials to operators. Silent
// denials are expected traffic and stay quiet.
func (s *AccessService) flagIdentifierDenial(ctx context.Context, decision pdp_model.AccessDecision, caller pdp_model.CallerIdentity, err error) {
	if err == nil || !errors.Is(err, apierrors.ErrAccessDenied) {
		return
	}
	if notifyErr := s.notificationSvc.NotifyIdentifierDenial(ctx, decision, caller); notifyErr != nil {
		logger.Warn("Failed to notify identifier denial", zap.Error(notifyErr))
	}
}

func (s *AccessService) EnforcePrecisePhoneState(ctx context.Context, req pdp_model.AccessRequest) error {
	err := s.engineFor(req.Caller).EnforceReadPrecisePhoneStateOrCarrierPrivilege(
		ctx, req.SubscriptionID, req.Caller.UID, req.Message)
	_, recordErr := s.record(ctx, "read_precise_phone_state", req, err == nil, err)
	return recordErr
}

func (s *AccessService) CheckSubscriptionAssociatedWithUser(ctx context.Context, subID, userID int, number string) (bool, error) {
	eng := engine.NewEngine(s.oracles)
	return eng.CheckSubscriptionAssociatedWithUser(ctx, subID, userID, number)
}

// record writes the audit entry and publishes the decision event. Unexpected
// oracle failures pass through untouched so callers fail loud.
func (s *AccessService) record(ctx context.Context, check string, req pdp_model.AccessRequest, granted bool, err error) (pdp_model.AccessDecision, error) {
	if err != nil && !errors.Is(err, apierrors.ErrAccessDenied) {
		logger.Error("Access check failed on oracle error",
			zap.String("check", check), zap.Error(err))
		return pdp_model.AccessDecision{}, err
	}

	decision := pdp_model.AccessDecision{
		Check:          check,
		Granted:        granted,
		Silent:         !granted && err == nil,
		SubscriptionID: req.SubscriptionID,
	}

	entry := audit.AccessLog{
		Timestamp:      time.Now(),
		UID:            req.Caller.UID,
		PID:            req.Caller.PID,
		Package:        req.Caller.Package,
		SubscriptionID: req.SubscriptionID,
		Check:          check,
		Granted:        granted,
		Silent:         decision.Silent,
	}
	if auditErr := s.auditService.LogAccess(ctx, entry); auditErr != nil {
		logger.Warn("Failed to audit access decision", zap.Error(auditErr), zap.String("check", check))
	}

	s.eventBus.Publish(ctx, "access.decision", decision)

	return decision, err
}
