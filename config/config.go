// SPDX-License-Identifier: MIT
// Copyright 2023 Flyvercity

// Package config loads and validates the service configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration structure
type Config struct {
	Service  *ServiceConfig  `yaml:"service" json:"service"`
	Logging  *LoggingConfig  `yaml:"logging" json:"logging"`
	Mongo    *MongoConfig    `yaml:"mongo" json:"mongo"`
	USS      *USSConfig      `yaml:"uss" json:"uss"`
	SliceMan *SliceManConfig `yaml:"sliceman" json:"sliceman"`
	Security *SecurityConfig `yaml:"security" json:"security"`
	Influx   *InfluxConfig   `yaml:"influx" json:"influx"`
	DID      *DIDConfig      `yaml:"did" json:"did"`
	OAuth    *OAuthConfig    `yaml:"oauth" json:"oauth"`
	Metrics  *MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// ServiceConfig holds the listener parameters
type ServiceConfig struct {
	Port int `yaml:"port" json:"port"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// MongoConfig holds session store connection parameters
type MongoConfig struct {
	URI string `yaml:"uri" json:"uri"`
}

// KeycloakConfig describes one OIDC realm endpoint
type KeycloakConfig struct {
	Base         string `yaml:"base" json:"base"`
	Realm        string `yaml:"realm" json:"realm"`
	AuthClientID string `yaml:"auth-client-id" json:"auth-client-id"`
	RetryTimeout int    `yaml:"retry-timeout" json:"retry-timeout"`
}

// OAuthSection nests the IdP configuration the way the config file does
type OAuthSection struct {
	Keycloak *KeycloakConfig `yaml:"keycloak" json:"keycloak"`
}

// USSConfig holds the USSP approval endpoint parameters
type USSConfig struct {
	Endpoint string        `yaml:"endpoint" json:"endpoint"`
	OAuth    *OAuthSection `yaml:"oauth" json:"oauth"`
}

// SimulatedSliceConfig holds the fixed addresses of the simulated provider
type SimulatedSliceConfig struct {
	UE      string `yaml:"ue" json:"ue"`
	ADX     string `yaml:"adx" json:"adx"`
	Gateway string `yaml:"gateway" json:"gateway"`
}

// CucumoreConfig holds the vendor slice controller parameters
type CucumoreConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// SliceManConfig selects and configures the network slice provider
type SliceManConfig struct {
	Provider  string                `yaml:"provider" json:"provider"`
	Simulated *SimulatedSliceConfig `yaml:"simulated" json:"simulated"`
	Cucumore  *CucumoreConfig       `yaml:"cucumore" json:"cucumore"`
}

// SecurityConfig holds root credential files and certificate lifetime
type SecurityConfig struct {
	Certificate string `yaml:"certificate" json:"certificate"`
	Private     string `yaml:"private" json:"private"`
	DefaultTTL  int    `yaml:"default-ttl" json:"default-ttl"`
}

// InfluxConfig holds signal store connection parameters
type InfluxConfig struct {
	URI    string `yaml:"uri" json:"uri"`
	Org    string `yaml:"org" json:"org"`
	Bucket string `yaml:"bucket" json:"bucket"`
}

// DIDResource points at a pre-provisioned verifiable credential
type DIDResource struct {
	JWT string `yaml:"jwt" json:"jwt"`
}

// DIDConfig holds verifiable credential issuance parameters
type DIDConfig struct {
	IssuerDID string                  `yaml:"issuer-did" json:"issuer-did"`
	Resources map[string]*DIDResource `yaml:"resources" json:"resources"`
}

// OAuthConfig holds the IdP used to authenticate API clients
type OAuthConfig struct {
	Keycloak *KeycloakConfig `yaml:"keycloak" json:"keycloak"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Port    int  `yaml:"port" json:"port"`
}

// LoadFromFile loads configuration from a YAML file. Environment
// references of the form ${VAR} or ${VAR:default} are substituted
// before parsing.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}

	if err := yaml.Unmarshal([]byte(SubstituteEnvVars(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the sections the service cannot start without
func (c *Config) Validate() error {
	if c.Service == nil || c.Service.Port == 0 {
		return fmt.Errorf("service.port is required")
	}

	if c.Mongo == nil || c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required")
	}

	if c.Security == nil || c.Security.Certificate == "" || c.Security.Private == "" {
		return fmt.Errorf("security.certificate and security.private are required")
	}

	if c.SliceMan == nil || c.SliceMan.Provider == "" {
		return fmt.Errorf("sliceman.provider is required")
	}

	if c.USS == nil || c.USS.Endpoint == "" || c.USS.OAuth == nil || c.USS.OAuth.Keycloak == nil {
		return fmt.Errorf("uss.endpoint and uss.oauth.keycloak are required")
	}

	if c.Influx == nil || c.Influx.URI == "" {
		return fmt.Errorf("influx.uri is required")
	}

	if c.OAuth == nil || c.OAuth.Keycloak == nil || c.OAuth.Keycloak.Base == "" {
		return fmt.Errorf("oauth.keycloak.base is required")
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults(cfg *Config) {
	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}

	if cfg.Security != nil && cfg.Security.DefaultTTL == 0 {
		cfg.Security.DefaultTTL = 3600
	}

	if cfg.OAuth != nil && cfg.OAuth.Keycloak != nil && cfg.OAuth.Keycloak.RetryTimeout == 0 {
		cfg.OAuth.Keycloak.RetryTimeout = 5
	}

	if cfg.USS != nil && cfg.USS.OAuth != nil && cfg.USS.OAuth.Keycloak != nil {
		if cfg.USS.OAuth.Keycloak.RetryTimeout == 0 {
			cfg.USS.OAuth.Keycloak.RetryTimeout = 5
		}
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{Enabled: true, Port: 9100}
	} else if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9100
	}
}
