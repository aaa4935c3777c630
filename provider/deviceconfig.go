// api/provider/deviceconfig.go
package provider

import (
	"fmt"

	"github.com/spf13/viper"
)

// DeviceConfigStore reads device-wide flags from configuration. Keys live
// under deviceconfig.<namespace>.<key>. The READ_DEVICE_CONFIG gate is the
// engine's concern; the store itself is a plain lookup.
type DeviceConfigStore struct{}

func NewDeviceConfigStore() *DeviceConfigStore {
	return &DeviceConfigStore{}
}

func (d *DeviceConfigStore) GetFlag(namespace, key string) (string, bool) {
	configKey := fmt.Sprintf("deviceconfig.%s.%s", namespace, key)
	if !viper.IsSet(configKey) {
		return "", false
	}
	return viper.GetString(configKey), true
}
