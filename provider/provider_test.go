// api/provider/provider_test.go
package provider_test

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/telgate/telgate/api/pdp/model"
	"github.com/telgate/telgate/api/provider"
)

func TestDeviceConfigStore(t *testing.T) {
	store := provider.NewDeviceConfigStore()

	t.Run("UnsetFlagIsAbsent", func(t *testing.T) {
		_, ok := store.GetFlag("privacy", "no_such_flag")
		assert.False(t, ok)
	})

	t.Run("SetFlagIsReturned", func(t *testing.T) {
		viper.Set("deviceconfig.privacy."+model.FlagIdentifierAccessRestrictionsOff, "1")
		defer viper.Set("deviceconfig.privacy."+model.FlagIdentifierAccessRestrictionsOff, "")

		value, ok := store.GetFlag(model.DeviceConfigNamespacePrivacy, model.FlagIdentifierAccessRestrictionsOff)
		assert.True(t, ok)
		assert.Equal(t, "1", value)
	})
}

func TestEmergencyNumberTable(t *testing.T) {
	ctx := context.Background()
	table := provider.NewEmergencyNumberTable([]string{"911", "112"})

	assert.True(t, table.IsEmergencyNumber(ctx, "911"))
	assert.True(t, table.IsEmergencyNumber(ctx, "112"))
	assert.False(t, table.IsEmergencyNumber(ctx, "5551234"))
	assert.False(t, table.IsEmergencyNumber(ctx, ""))
}
