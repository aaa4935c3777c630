// api/controller/controllers.go
package controller

import (
	"github.com/telgate/telgate/api/audit"
	"github.com/telgate/telgate/api/service"
)

type Controllers struct {
	Access *AccessController
	Fact   *FactController
}

func InitializeControllers(services *service.Services, auditService audit.Service) *Controllers {
	return &Controllers{
		Access: NewAccessController(services.Access, auditService),
		Fact:   NewFactController(services.Fact),
	}
}
