// service/access_service_test.go
package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/telgate/telgate/api/errors"
	"github.com/telgate/telgate/api/pdp/engine"
	pdp_model "github.com/telgate/telgate/api/pdp/model"
	"github.com/telgate/telgate/api/provider"
	"github.com/telgate/telgate/api/service"
	"github.com/telgate/telgate/api/util"
)

// Every request-shaped check must reject a malformed request before the
// engine or any backing store is consulted, so bare collaborators suffice.
func TestAccessServiceValidatesRequests(t *testing.T) {
	svc := service.NewAccessService(
		engine.Oracles{},
		provider.NewPermissionStore(nil, 1000),
		util.NewValidationUtil(),
		nil,
		nil,
		nil,
	)
	ctx := context.Background()
	bad := pdp_model.AccessRequest{
		Caller:         pdp_model.CallerIdentity{PID: 1234, UID: -7, Package: "com.example"},
		SubscriptionID: 55555,
		Message:        "message",
	}

	checks := map[string]func(context.Context, pdp_model.AccessRequest) (pdp_model.AccessDecision, error){
		"CheckReadPhoneState":            svc.CheckReadPhoneState,
		"CheckReadPhoneNumber":           svc.CheckReadPhoneNumber,
		"CheckReadDeviceIdentifiers":     svc.CheckReadDeviceIdentifiers,
		"CheckReadSubscriberIdentifiers": svc.CheckReadSubscriberIdentifiers,
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			decision, err := check(ctx, bad)
			require.Error(t, err)
			assert.ErrorIs(t, err, apierrors.ErrInvalidAccessRequest)
			assert.False(t, decision.Granted)
		})
	}
}
