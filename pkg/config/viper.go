package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load builds a viper instance for the named YAML file under configPath,
// with env overrides wired in (FOO_BAR overrides foo.bar). A missing file
// is not an error: a container deployment may configure cove entirely
// through the environment.
func Load(configPath, configName string) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return v, nil
}
