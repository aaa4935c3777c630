// api/controller/access_controller.go
package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/telgate/telgate/api/audit"
	apierrors "github.com/telgate/telgate/api/errors"
	pdp_model "github.com/telgate/telgate/api/pdp/model"
	"github.com/telgate/telgate/api/service"
	"github.com/telgate/telgate/api/util"
	helper_util "github.com/telgate/telgate/api/util/helper"
)

type AccessController struct {
	accessService service.IAccessService
	auditService  audit.Service
}

func NewAccessController(accessService service.IAccessService, auditService audit.Service) *AccessController {
	return &AccessController{
		accessService: accessService,
		auditService:  auditService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AccessController) RegisterRoutes(r *gin.RouterGroup) {
	access := r.Group("/access")
	{
		access.POST("/phone-state", ac.CheckReadPhoneState)
		access.POST("/phone-state/any-active-sub", ac.CheckReadPhoneStateOnAnyActiveSub)
		access.POST("/phone-number", ac.CheckReadPhoneNumber)
		access.POST("/device-identifiers", ac.CheckReadDeviceIdentifiers)
		access.POST("/subscriber-identifiers", ac.CheckReadSubscriberIdentifiers)
		access.POST("/precise-phone-state", ac.EnforcePrecisePhoneState)
		access.POST("/subscription-association", ac.CheckSubscriptionAssociation)
		access.GET("/decisions", ac.QueryDecisions)
	}
}

type associationRequest struct {
	SubscriptionID int    `json:"subscription_id"`
	UserID         int    `json:"user_id"`
	Number         string `json:"number,omitempty"`
}

func (ac *AccessController) CheckReadPhoneState(c *gin.Context) {
	ac.runCheck(c, ac.accessService.CheckReadPhoneState)
}

func (ac *AccessController) CheckReadPhoneStateOnAnyActiveSub(c *gin.Context) {
	var req pdp_model.AccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid access request", apierrors.ErrInvalidAccessRequest)
		return
	}
	decision, err := ac.accessService.CheckReadPhoneStateOnAnyActiveSub(c, req.Caller, req.Message)
	ac.respond(c, decision, err)
}

func (ac *AccessController) CheckReadPhoneNumber(c *gin.Context) {
	ac.runCheck(c, ac.accessService.CheckReadPhoneNumber)
}

func (ac *AccessController) CheckReadDeviceIdentifiers(c *gin.Context) {
	ac.runCheck(c, ac.accessService.CheckReadDeviceIdentifiers)
}

func (ac *AccessController) CheckReadSubscriberIdentifiers(c *gin.Context) {
	ac.runCheck(c, ac.accessService.CheckReadSubscriberIdentifiers)
}

func (ac *AccessController) EnforcePrecisePhoneState(c *gin.Context) {
	var req pdp_model.AccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid access request", apierrors.ErrInvalidAccessRequest)
		return
	}
	if err := ac.accessService.EnforcePrecisePhoneState(c, req); err != nil {
		if errors.Is(err, apierrors.ErrAccessDenied) {
			util.RespondWithError(c, http.StatusForbidden, "Access denied", err)
		} else {
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to evaluate access", apierrors.ErrInternalServer)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (ac *AccessController) CheckSubscriptionAssociation(c *gin.Context) {
	var req associationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid association request", apierrors.ErrInvalidAccessRequest)
		return
	}
	associated, err := ac.accessService.CheckSubscriptionAssociatedWithUser(c, req.SubscriptionID, req.UserID, req.Number)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to evaluate association", apierrors.ErrInternalServer)
		return
	}
	c.JSON(http.StatusOK, gin.H{"associated": associated})
}

// QueryDecisions returns audited access decisions in a time window.
func (ac *AccessController) QueryDecisions(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", apierrors.ErrInvalidPagination)
		return
	}

	from := time.Now().Add(-24 * time.Hour)
	to := time.Now()
	if v := c.Query("from"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			from = parsed
		}
	}
	if v := c.Query("to"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			to = parsed
		}
	}
	uid, _ := strconv.Atoi(c.DefaultQuery("uid", "0"))
	check := c.Query("check")

	logs, err := ac.auditService.QueryAccessLogs(c, from, to, uid, check)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to query decisions", apierrors.ErrInternalServer)
		return
	}

	if offset > len(logs) {
		offset = len(logs)
	}
	end := offset + limit
	if end > len(logs) {
		end = len(logs)
	}
	c.JSON(http.StatusOK, gin.H{"decisions": logs[offset:end], "total": len(logs)})
}

func (ac *AccessController) runCheck(c *gin.Context, check func(ctx context.Context, req pdp_model.AccessRequest) (pdp_model.AccessDecision, error)) {
	var req pdp_model.AccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid access request", apierrors.ErrInvalidAccessRequest)
		return
	}
	decision, err := check(c, req)
	ac.respond(c, decision, err)
}

func (ac *AccessController) respond(c *gin.Context, decision pdp_model.AccessDecision, err error) {
	if err != nil {
		switch {
		case errors.Is(err, apierrors.ErrAccessDenied):
			util.RespondWithError(c, http.StatusForbidden, "Access denied", err)
		case errors.Is(err, apierrors.ErrInvalidAccessRequest):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid access request", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to evaluate access", apierrors.ErrInternalServer)
		}
		return
	}
	c.JSON(http.StatusOK, decision)
}
