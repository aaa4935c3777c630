// api/controller/access_controller_test.go
package controller_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"

	"github.com/telgate/telgate/api/audit"
	"github.com/telgate/telgate/api/controller"
	apierrors "github.com/telgate/telgate/api/errors"
	logger "github.com/telgate/telgate/api/logging"
	pdp_model "github.com/telgate/telgate/api/pdp/model"
	"github.com/telgate/telgate/api/test/mock"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "arbiter-test")
	if err != nil {
		panic(err)
	}
	logger.InitLogger(dir)
	code := m.Run()
	logger.Sync()
	os.RemoveAll(dir)
	os.Exit(code)
}

func setupAccessRouter(accessService *mock.MockAccessService, auditService *mock.MockAuditService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/")
	controller.NewAccessController(accessService, auditService).RegisterRoutes(api)
	return r
}

const accessRequestBody = `{
	"caller": {"pid": 1234, "uid": 10077, "package": "com.example"},
	"subscription_id": 55555,
	"message": "message"
}`

func TestAccessController(t *testing.T) {
	t.Run("CheckPhoneState_Granted", func(t *testing.T) {
		accessService := new(mock.MockAccessService)
		auditService := new(mock.MockAuditService)
		router := setupAccessRouter(accessService, auditService)

		decision := pdp_model.AccessDecision{Check: "read_phone_state", Granted: true, SubscriptionID: 55555}
		accessService.On("CheckReadPhoneState", tmock.Anything, tmock.Anything).Return(decision, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/access/phone-state", strings.NewReader(accessRequestBody))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var got pdp_model.AccessDecision
		json.NewDecoder(w.Body).Decode(&got)
		assert.True(t, got.Granted)
		assert.Equal(t, "read_phone_state", got.Check)
	})

	t.Run("CheckPhoneState_SilentDenial", func(t *testing.T) {
		accessService := new(mock.MockAccessService)
		auditService := new(mock.MockAuditService)
		router := setupAccessRouter(accessService, auditService)

		decision := pdp_model.AccessDecision{Check: "read_phone_state", Granted: false, Silent: true}
		accessService.On("CheckReadPhoneState", tmock.Anything, tmock.Anything).Return(decision, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/access/phone-state", strings.NewReader(accessRequestBody))
		router.ServeHTTP(w, req)

		// Silent denial is still a successful evaluation.
		assert.Equal(t, http.StatusOK, w.Code)

		var got pdp_model.AccessDecision
		json.NewDecoder(w.Body).Decode(&got)
		assert.False(t, got.Granted)
		assert.True(t, got.Silent)
	})

	t.Run("CheckPhoneState_HardDenial", func(t *testing.T) {
		accessService := new(mock.MockAccessService)
		auditService := new(mock.MockAuditService)
		router := setupAccessRouter(accessService, auditService)

		denial := fmt.Errorf("message: %w", apierrors.ErrAccessDenied)
		accessService.On("CheckReadPhoneState", tmock.Anything, tmock.Anything).Return(pdp_model.AccessDecision{}, denial)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/access/phone-state", strings.NewReader(accessRequestBody))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("CheckPhoneState_InvalidRequest", func(t *testing.T) {
		accessService := new(mock.MockAccessService)
		auditService := new(mock.MockAuditService)
		router := setupAccessRouter(accessService, auditService)

		invalid := fmt.Errorf("access request must name a subscription: %w", apierrors.ErrInvalidAccessRequest)
		accessService.On("CheckReadPhoneState", tmock.Anything, tmock.Anything).Return(pdp_model.AccessDecision{}, invalid)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/access/phone-state", strings.NewReader(accessRequestBody))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CheckPhoneState_MalformedBody", func(t *testing.T) {
		accessService := new(mock.MockAccessService)
		auditService := new(mock.MockAuditService)
		router := setupAccessRouter(accessService, auditService)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/access/phone-state", strings.NewReader("{not json"))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		accessService.AssertNotCalled(t, "CheckReadPhoneState", tmock.Anything, tmock.Anything)
	})

	t.Run("CheckPhoneStateAnyActiveSub_Granted", func(t *testing.T) {
		accessService := new(mock.MockAccessService)
		auditService := new(mock.MockAuditService)
		router := setupAccessRouter(accessService, auditService)

		decision := pdp_model.AccessDecision{Check: "read_phone_state_any_active_sub", Granted: true}
		accessService.On("CheckReadPhoneStateOnAnyActiveSub", tmock.Anything, tmock.Anything, "message").Return(decision, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/access/phone-state/any-active-sub", strings.NewReader(accessRequestBody))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("EnforcePrecisePhoneState_Passes", func(t *testing.T) {
		accessService := new(mock.MockAccessService)
		auditService := new(mock.MockAuditService)
		router := setupAccessRouter(accessService, auditService)

		accessService.On("EnforcePrecisePhoneState", tmock.Anything, tmock.Anything).Return(nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/access/precise-phone-state", strings.NewReader(accessRequestBody))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("EnforcePrecisePhoneState_Denied", func(t *testing.T) {
		accessService := new(mock.MockAccessService)
		auditService := new(mock.MockAuditService)
		router := setupAccessRouter(accessService, auditService)

		denial := fmt.Errorf("message: %w", apierrors.ErrAccessDenied)
		accessService.On("EnforcePrecisePhoneState", tmock.Anything, tmock.Anything).Return(denial)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/access/precise-phone-state", strings.NewReader(accessRequestBody))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("SubscriptionAssociation_Associated", func(t *testing.T) {
		accessService := new(mock.MockAccessService)
		auditService := new(mock.MockAuditService)
		router := setupAccessRouter(accessService, auditService)

		accessService.On("CheckSubscriptionAssociatedWithUser", tmock.Anything, 55555, 0, "911").Return(true, nil)

		body := strings.NewReader(`{"subscription_id": 55555, "user_id": 0, "number": "911"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/access/subscription-association", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"associated":true`)
	})

	t.Run("QueryDecisions_ReturnsWindow", func(t *testing.T) {
		accessService := new(mock.MockAccessService)
		auditService := new(mock.MockAuditService)
		router := setupAccessRouter(accessService, auditService)

		logs := []audit.AccessLog{
			{Timestamp: time.Now().UTC(), UID: 10077, Check: "read_phone_state", Granted: true},
			{Timestamp: time.Now().UTC(), UID: 10077, Check: "read_phone_number", Granted: false},
		}
		auditService.On("QueryAccessLogs", tmock.Anything, tmock.Anything, tmock.Anything, 10077, "").Return(logs, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/access/decisions?uid=10077", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":2`)
	})
}
