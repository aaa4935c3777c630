// api/provider/telephony.go
package provider

import (
	"context"

	"go.uber.org/zap"

	"github.com/telgate/telgate/api/dao"
	"github.com/telgate/telgate/api/db"
	apierrors "github.com/telgate/telgate/api/errors"
	logger "github.com/telgate/telgate/api/logging"
	"github.com/telgate/telgate/api/pdp/model"
)

// CarrierPrivilegeProvider resolves carrier privilege from the subscription
// graph, with a Redis layer in front since the same (subscription, uid) pair
// is asked for on every check of a chatty caller.
type CarrierPrivilegeProvider struct {
	subscriptions *dao.SubscriptionDAO
	cacheEnabled  bool
}

func NewCarrierPrivilegeProvider(subscriptions *dao.SubscriptionDAO, cacheEnabled bool) *CarrierPrivilegeProvider {
	return &CarrierPrivilegeProvider{subscriptions: subscriptions, cacheEnabled: cacheEnabled}
}

func (c *CarrierPrivilegeProvider) StatusForSubscription(ctx context.Context, subID, uid int) (model.CarrierPrivilegeStatus, error) {
	if c.cacheEnabled {
		cached, ok, err := db.GetCachedCarrierPrivilegeStatus(ctx, subID, uid)
		if err != nil {
			logger.Warn("Carrier privilege cache read failed", zap.Error(err))
		} else if ok {
			if cached == model.CarrierPrivilegeHasAccess.String() {
				return model.CarrierPrivilegeHasAccess, nil
			}
			return model.CarrierPrivilegeNoAccess, nil
		}
	}

	has, err := c.subscriptions.HasCarrierPrivilege(ctx, subID, uid)
	if err != nil {
		return model.CarrierPrivilegeNoAccess, err
	}

	status := model.CarrierPrivilegeNoAccess
	if has {
		status = model.CarrierPrivilegeHasAccess
	}
	if c.cacheEnabled {
		if err := db.CacheCarrierPrivilegeStatus(ctx, subID, uid, status.String()); err != nil {
			logger.Warn("Carrier privilege cache write failed", zap.Error(err))
		}
	}
	return status, nil
}

// SubscriptionProvider exposes the active-subscription set and user
// association straight from the subscription graph.
type SubscriptionProvider struct {
	subscriptions *dao.SubscriptionDAO
}

func NewSubscriptionProvider(subscriptions *dao.SubscriptionDAO) *SubscriptionProvider {
	return &SubscriptionProvider{subscriptions: subscriptions}
}

func (s *SubscriptionProvider) ActiveSubscriptionIDs(ctx context.Context) ([]int, error) {
	return s.subscriptions.ActiveSubscriptionIDs(ctx)
}

func (s *SubscriptionProvider) IsAssociated(ctx context.Context, subID, userID int) (bool, error) {
	return s.subscriptions.IsAssociatedWithUser(ctx, subID, userID)
}

// PackageMetadataProvider resolves package metadata, caching positive lookups
// in Redis. Negative lookups are not cached so a freshly registered package
// is visible immediately.
type PackageMetadataProvider struct {
	packages     *dao.PackageDAO
	cacheEnabled bool
}

func NewPackageMetadataProvider(packages *dao.PackageDAO, cacheEnabled bool) *PackageMetadataProvider {
	return &PackageMetadataProvider{packages: packages, cacheEnabled: cacheEnabled}
}

func (p *PackageMetadataProvider) TargetAPILevel(ctx context.Context, pkg string, userID int) (int, error) {
	if pkg == "" {
		return 0, apierrors.ErrNilPackageName
	}
	if p.cacheEnabled {
		cached, err := db.GetCachedPackageInfo(ctx, pkg, userID)
		if err != nil {
			logger.Warn("Package cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached.TargetAPILevel, nil
		}
	}

	info, err := p.packages.GetPackage(ctx, pkg, userID)
	if err != nil {
		return 0, err
	}
	if p.cacheEnabled {
		if err := db.CachePackageInfo(ctx, info); err != nil {
			logger.Warn("Package cache write failed", zap.Error(err))
		}
	}
	return info.TargetAPILevel, nil
}

// EmergencyNumberTable classifies dialed numbers against a configured set.
type EmergencyNumberTable struct {
	numbers map[string]struct{}
}

func NewEmergencyNumberTable(numbers []string) *EmergencyNumberTable {
	table := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		table[n] = struct{}{}
	}
	return &EmergencyNumberTable{numbers: table}
}

func (t *EmergencyNumberTable) IsEmergencyNumber(ctx context.Context, number string) bool {
	_, ok := t.numbers[number]
	return ok
}
