// api/service/services.go
package service

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/telgate/telgate/api/audit"
	"github.com/telgate/telgate/api/dao"
	"github.com/telgate/telgate/api/pdp/engine"
	"github.com/telgate/telgate/api/provider"
	"github.com/telgate/telgate/api/util"
)

type Services struct {
	Access IAccessService
	Fact   IFactService
}

func InitializeServices(
	driver neo4j.Driver,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
	selfUID int,
	cacheEnabled bool,
	emergencyNumbers []string,
) (*Services, error) {
	subscriptionDAO := dao.NewSubscriptionDAO(driver, auditService)
	grantDAO := dao.NewGrantDAO(driver, auditService)
	packageDAO := dao.NewPackageDAO(driver)

	permissions := provider.NewPermissionStore(grantDAO, selfUID)
	appOps := provider.NewAppOpStore(grantDAO, provider.NewUsageNoter(auditService))
	subscriptions := provider.NewSubscriptionProvider(subscriptionDAO)

	oracles := engine.Oracles{
		Permissions:   permissions,
		AppOps:        appOps,
		Carrier:       provider.NewCarrierPrivilegeProvider(subscriptionDAO, cacheEnabled),
		Subscriptions: subscriptions,
		Legacy:        provider.NewLegacyPermissionService(grantDAO, packageDAO, appOps),
		Packages:      provider.NewPackageMetadataProvider(packageDAO, cacheEnabled),
		DeviceConfig:  provider.NewDeviceConfigStore(),
		Association:   subscriptions,
		Emergency:     provider.NewEmergencyNumberTable(emergencyNumbers),
	}

	services := &Services{
		Access: NewAccessService(oracles, permissions, validationUtil, auditService, notificationSvc, eventBus),
		Fact:   NewFactService(subscriptionDAO, grantDAO, packageDAO, validationUtil, notificationSvc, eventBus),
	}

	return services, nil
}
