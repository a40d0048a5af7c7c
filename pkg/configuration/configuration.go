package configuration

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadOrDefault binds configVar of the global viper instance to envVar.
// A nil default marks the variable as required.
func LoadOrDefault(configVar string, envVar string, defaultVal any) error {
	return LoadOrDefaultWith(viper.GetViper(), configVar, envVar, defaultVal)
}

// LoadOrDefaultWith binds configVar of v to envVar.
// A nil default marks the variable as required.
func LoadOrDefaultWith(v *viper.Viper, configVar string, envVar string, defaultVal any) error {
	if defaultVal != nil {
		v.SetDefault(configVar, defaultVal)
	}
	if err := v.BindEnv(configVar, envVar); err != nil {
		return fmt.Errorf("failed to bind %s to %s: %w", configVar, envVar, err)
	}
	if defaultVal == nil && !v.IsSet(configVar) {
		return fmt.Errorf("required environment variable %s is not set", envVar)
	}
	return nil
}
