// api/controller/fact_controller.go
package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/telgate/telgate/api/errors"
	"github.com/telgate/telgate/api/model"
	"github.com/telgate/telgate/api/service"
	"github.com/telgate/telgate/api/util"
)

type FactController struct {
	factService service.IFactService
}

func NewFactController(factService service.IFactService) *FactController {
	return &FactController{
		factService: factService,
	}
}

// RegisterRoutes registers the API routes
func (fc *FactController) RegisterRoutes(r *gin.RouterGroup) {
	facts := r.Group("/facts")
	{
		facts.PUT("/subscriptions", fc.UpsertSubscription)
		facts.GET("/subscriptions", fc.ListActiveSubscriptions)
		facts.GET("/subscriptions/:id", fc.GetSubscription)
		facts.POST("/subscriptions/:id/carrier-privileges", fc.AddCarrierPrivilegeGrant)
		facts.DELETE("/subscriptions/:id/carrier-privileges/:uid", fc.RemoveCarrierPrivilegeGrant)
		facts.POST("/permissions", fc.GrantPermission)
		facts.DELETE("/permissions/:name/:uid", fc.RevokePermission)
		facts.POST("/app-ops", fc.SetAppOpMode)
		facts.PUT("/packages", fc.RegisterPackage)
	}
}

// UpsertSubscription endpoint
func (fc *FactController) UpsertSubscription(c *gin.Context) {
	var sub model.Subscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid subscription data", apierrors.ErrInvalidSubscriptionData)
		return
	}

	if err := fc.factService.UpsertSubscription(c, sub); err != nil {
		switch {
		case errors.Is(err, apierrors.ErrDatabaseOperation):
			util.RespondWithError(c, http.StatusInternalServerError, "Database operation failed", err)
		default:
			util.RespondWithError(c, http.StatusBadRequest, "Failed to upsert subscription", err)
		}
		return
	}

	c.JSON(http.StatusOK, sub)
}

// GetSubscription endpoint
func (fc *FactController) GetSubscription(c *gin.Context) {
	subID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid subscription ID", apierrors.ErrInvalidSubscriptionData)
		return
	}

	sub, err := fc.factService.GetSubscription(c, subID)
	if err != nil {
		if errors.Is(err, apierrors.ErrSubscriptionNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Subscription not found", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve subscription", err)
		}
		return
	}

	c.JSON(http.StatusOK, sub)
}

// ListActiveSubscriptions endpoint
func (fc *FactController) ListActiveSubscriptions(c *gin.Context) {
	ids, err := fc.factService.ListActiveSubscriptionIDs(c)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list subscriptions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_subscription_ids": ids})
}

// AddCarrierPrivilegeGrant endpoint
func (fc *FactController) AddCarrierPrivilegeGrant(c *gin.Context) {
	subID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid subscription ID", apierrors.ErrInvalidSubscriptionData)
		return
	}

	var grant model.CarrierPrivilegeGrant
	if err := c.ShouldBindJSON(&grant); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid grant data", apierrors.ErrInvalidGrantData)
		return
	}
	grant.SubscriptionID = subID

	id, err := fc.factService.AddCarrierPrivilegeGrant(c, grant)
	if err != nil {
		if errors.Is(err, apierrors.ErrSubscriptionNotFound) {
			util.RespondWithError(c, http.StatusNotFound, "Subscription not found", err)
		} else {
			util.RespondWithError(c, http.StatusBadRequest, "Failed to add carrier privilege grant", err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// RemoveCarrierPrivilegeGrant endpoint
func (fc *FactController) RemoveCarrierPrivilegeGrant(c *gin.Context) {
	subID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid subscription ID", apierrors.ErrInvalidSubscriptionData)
		return
	}
	uid, err := strconv.Atoi(c.Param("uid"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid UID", apierrors.ErrInvalidGrantData)
		return
	}

	if err := fc.factService.RemoveCarrierPrivilegeGrant(c, subID, uid); err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to remove carrier privilege grant", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GrantPermission endpoint
func (fc *FactController) GrantPermission(c *gin.Context) {
	var grant model.PermissionGrant
	if err := c.ShouldBindJSON(&grant); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid grant data", apierrors.ErrInvalidGrantData)
		return
	}

	id, err := fc.factService.GrantPermission(c, grant)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Failed to grant permission", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// RevokePermission endpoint
func (fc *FactController) RevokePermission(c *gin.Context) {
	uid, err := strconv.Atoi(c.Param("uid"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid UID", apierrors.ErrInvalidGrantData)
		return
	}

	if err := fc.factService.RevokePermission(c, c.Param("name"), uid); err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to revoke permission", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetAppOpMode endpoint
func (fc *FactController) SetAppOpMode(c *gin.Context) {
	var setting model.AppOpSetting
	if err := c.ShouldBindJSON(&setting); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid app-op data", apierrors.ErrInvalidGrantData)
		return
	}

	id, err := fc.factService.SetAppOpMode(c, setting)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Failed to set app-op mode", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// RegisterPackage endpoint
func (fc *FactController) RegisterPackage(c *gin.Context) {
	var pkg model.PackageInfo
	if err := c.ShouldBindJSON(&pkg); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid package data", apierrors.ErrInvalidPackageData)
		return
	}

	if err := fc.factService.RegisterPackage(c, pkg); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Failed to register package", err)
		return
	}

	c.JSON(http.StatusOK, pkg)
}
