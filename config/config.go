// Package config loads the kotosiro runtime configuration.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables with the KOTOSIRO_ prefix
//  2. An explicit configuration file passed on the command line
//  3. Built-in defaults
//
// Example:
//
//	KOTOSIRO_DB_URL=postgres://... KOTOSIRO_NO_AUTH=true kotosiro controller
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix for all settings:
// db_url becomes KOTOSIRO_DB_URL.
const EnvPrefix = "KOTOSIRO"

// Config is the flat runtime configuration shared by all subcommands.
type Config struct {
	// DbURL is the PostgreSQL connection URL. Mandatory.
	DbURL string `mapstructure:"db_url" validate:"required"`

	// ControllerAddr is the address the controller API is advertised under.
	ControllerAddr string `mapstructure:"controller_addr" validate:"required"`

	// ControllerBind is the address the controller API listens on.
	ControllerBind string `mapstructure:"controller_bind" validate:"required"`

	// ClusterGossipAddr is the advertised cluster gossip address.
	ClusterGossipAddr string `mapstructure:"cluster_gossip_addr"`

	// ClusterGossipBind is the cluster gossip listen address.
	ClusterGossipBind string `mapstructure:"cluster_gossip_bind"`

	// MqAddr is the AMQP broker URL. Mandatory.
	MqAddr string `mapstructure:"mq_addr" validate:"required"`

	// OpaAddr is the base URL of the OPA sidecar. It may stay empty only
	// when NoAuth is set; the policy gate refuses to guess.
	OpaAddr string `mapstructure:"opa_addr" validate:"omitempty,url"`

	// NoAuth disables the policy gate entirely. Every action is allowed.
	NoAuth bool `mapstructure:"no_auth"`

	// UseJSONLog switches the log formatter to JSON.
	UseJSONLog bool `mapstructure:"use_json_log"`

	// LogFilter is the minimum log level to emit.
	LogFilter string `mapstructure:"log_filter"`
}

var validate = validator.New()

// settings lists every configuration key, bound explicitly so env-only keys
// survive viper.Unmarshal.
var settings = []string{
	"db_url",
	"controller_addr",
	"controller_bind",
	"cluster_gossip_addr",
	"cluster_gossip_bind",
	"mq_addr",
	"opa_addr",
	"no_auth",
	"use_json_log",
	"log_filter",
}

// Load reads the configuration from the optional file at path and the
// environment, applies defaults, and validates that the mandatory settings
// are present.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("controller_addr", "http://127.0.0.1:3000")
	v.SetDefault("controller_bind", "0.0.0.0:3000")
	v.SetDefault("cluster_gossip_addr", "127.0.0.1:7000")
	v.SetDefault("cluster_gossip_bind", "0.0.0.0:7000")
	v.SetDefault("no_auth", false)
	v.SetDefault("use_json_log", false)
	v.SetDefault("log_filter", "info")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	for _, key := range settings {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %q: %w", key, err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validate.Struct(&conf); err != nil {
		return nil, fmt.Errorf("mandatory configuration value not set: %w", err)
	}
	if !conf.NoAuth && conf.OpaAddr == "" {
		return nil, fmt.Errorf(
			"opa_addr must be set while the policy gate is enabled (set %s_NO_AUTH=true to run without it)",
			EnvPrefix)
	}
	return &conf, nil
}
