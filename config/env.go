// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

package config

import (
	"fmt"
	"os"
	"regexp"
)

// Environment variables consumed by the service
const (
	EnvConfigFile      = "C2NG_CONFIG_FILE"
	EnvUasClientSecret = "C2NG_UAS_CLIENT_SECRET"
	EnvUssClientSecret = "C2NG_USS_CLIENT_SECRET"
	EnvWsAuthSecret    = "C2NG_WS_AUTH_SECRET"
	EnvInfluxToken     = "DOCKER_INFLUXDB_INIT_ADMIN_TOKEN"
)

// envVarPattern matches ${VAR} or ${VAR:default}
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// SubstituteEnvVars replaces ${VAR} or ${VAR:default} with environment variable values
func SubstituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}

// RequireEnv returns the value of a mandatory environment variable
func RequireEnv(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("%s not set", name)
	}
	return value, nil
}
