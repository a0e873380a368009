// Package config merges file, environment, and CLI-flag configuration for
// the tunnel client into a single validated Options value.
package config

import "fmt"

// Options holds every setting the CLI/config/env surface recognizes, after
// config-file, environment, and CLI-flag layers have been merged.
type Options struct {
	URL   string `yaml:"url" toml:"url" json:"url" env:"PORI_URL"`
	Token string `yaml:"token" toml:"token" json:"token" env:"PORI_TOKEN"`

	Protocol      string `yaml:"protocol" toml:"protocol" json:"protocol" env:"PORI_PROTOCOL" env-default:"http"`
	Port          int    `yaml:"port" toml:"port" json:"port" env:"PORI_PORT" env-default:"80"`
	DashboardPort int    `yaml:"dashboardPort" toml:"dashboardPort" json:"dashboardPort" env:"PORI_DASHBOARD_PORT" env-default:"4040"`

	Timeout       int  `yaml:"timeout" toml:"timeout" json:"timeout" env:"PORI_TIMEOUT" env-default:"30"`
	MaxReconnects int  `yaml:"maxReconnects" toml:"maxReconnects" json:"maxReconnects" env:"PORI_MAX_RECONNECTS" env-default:"0"`
	VerifySSL     bool `yaml:"verifySsl" toml:"verifySsl" json:"verifySsl" env:"PORI_VERIFY_SSL" env-default:"true"`

	MaxConnections int    `yaml:"maxConnections" toml:"maxConnections" json:"maxConnections" env:"PORI_MAX_CONNECTIONS" env-default:"100"`
	HTTPVersion    string `yaml:"httpVersion" toml:"httpVersion" json:"httpVersion" env:"PORI_HTTP_VERSION" env-default:"auto"`

	NoDashboard bool   `yaml:"noDashboard" toml:"noDashboard" json:"noDashboard" env:"PORI_NO_DASHBOARD" env-default:"false"`
	LogLevel    string `yaml:"logLevel" toml:"logLevel" json:"logLevel" env:"PORI_LOG_LEVEL" env-default:"info"`
}

// Default returns Options populated with the same defaults the env tags
// above carry, for callers that build an Options without going through
// cleanenv (e.g. tests).
func Default() Options {
	return Options{
		Protocol:       "http",
		Port:           80,
		DashboardPort:  4040,
		Timeout:        30,
		MaxReconnects:  0,
		VerifySSL:      true,
		MaxConnections: 100,
		HTTPVersion:    "auto",
		LogLevel:       "info",
	}
}

// ConfigError reports a configuration validation failure. It is always
// fatal and never triggers reconnect logic.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

var validProtocols = map[string]bool{"http": true, "https": true}
var validHTTPVersions = map[string]bool{"auto": true, "http1": true, "http2": true}

// Validate checks o against the documented option constraints. It returns
// the first violation found, wrapped as a *ConfigError.
func (o *Options) Validate() error {
	if o.URL == "" {
		return &ConfigError{Reason: "url is required"}
	}
	if o.Token == "" {
		return &ConfigError{Reason: "token is required"}
	}
	if !validProtocols[o.Protocol] {
		return &ConfigError{Reason: fmt.Sprintf("protocol must be http or https, got %q", o.Protocol)}
	}
	if o.Port < 1 || o.Port > 65535 {
		return &ConfigError{Reason: fmt.Sprintf("port must be 1-65535, got %d", o.Port)}
	}
	if !o.NoDashboard && (o.DashboardPort < 1 || o.DashboardPort > 65535) {
		return &ConfigError{Reason: fmt.Sprintf("dashboardPort must be 1-65535, got %d", o.DashboardPort)}
	}
	if o.Timeout <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("timeout must be positive, got %d", o.Timeout)}
	}
	if o.MaxReconnects < 0 {
		return &ConfigError{Reason: fmt.Sprintf("maxReconnects must be >= 0, got %d", o.MaxReconnects)}
	}
	if o.MaxConnections <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("maxConnections must be positive, got %d", o.MaxConnections)}
	}
	if !validHTTPVersions[o.HTTPVersion] {
		return &ConfigError{Reason: fmt.Sprintf("httpVersion must be one of auto, http1, http2, got %q", o.HTTPVersion)}
	}
	if _, err := ParseLevel(o.LogLevel); err != nil {
		return &ConfigError{Reason: err.Error()}
	}
	return nil
}
