// api/util/validation_util_test.go
package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "github.com/telgate/telgate/api/errors"
	"github.com/telgate/telgate/api/model"
	pdp_model "github.com/telgate/telgate/api/pdp/model"
	"github.com/telgate/telgate/api/util"
)

func TestValidateAccessRequest(t *testing.T) {
	v := util.NewValidationUtil()

	valid := pdp_model.AccessRequest{
		Caller:         pdp_model.CallerIdentity{PID: 1, UID: 10077, Package: "com.example"},
		SubscriptionID: 55555,
	}
	assert.NoError(t, v.ValidateAccessRequest(valid))

	negativeUID := valid
	negativeUID.Caller.UID = -1
	err := v.ValidateAccessRequest(negativeUID)
	assert.ErrorIs(t, err, apierrors.ErrInvalidAccessRequest)

	noSub := valid
	noSub.SubscriptionID = 0
	err = v.ValidateAccessRequest(noSub)
	assert.ErrorIs(t, err, apierrors.ErrInvalidAccessRequest)

	// Invalid marker is a legal subscription scope for device-wide checks.
	anySub := valid
	anySub.SubscriptionID = pdp_model.SubscriptionIDInvalid
	assert.NoError(t, v.ValidateAccessRequest(anySub))
}

func TestValidateSubscription(t *testing.T) {
	v := util.NewValidationUtil()

	assert.NoError(t, v.ValidateSubscription(model.Subscription{ID: 55555, CarrierID: "carrier-1"}))
	assert.Error(t, v.ValidateSubscription(model.Subscription{ID: 0, CarrierID: "carrier-1"}))
	assert.Error(t, v.ValidateSubscription(model.Subscription{ID: 55555}))
}

func TestValidateAppOpSetting(t *testing.T) {
	v := util.NewValidationUtil()

	for _, mode := range []string{"allowed", "errored", "ignored", "default"} {
		setting := model.AppOpSetting{Op: pdp_model.OpReadPhoneState, UID: 10077, Package: "com.example", Mode: mode}
		assert.NoError(t, v.ValidateAppOpSetting(setting))
	}

	bad := model.AppOpSetting{Op: pdp_model.OpReadPhoneState, UID: 10077, Package: "com.example", Mode: "sometimes"}
	assert.Error(t, v.ValidateAppOpSetting(bad))
}
