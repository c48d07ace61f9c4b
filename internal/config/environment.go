// File: internal/config/environment.go
package config

import (
	"fmt"
	"maps"
	"net/url"
	"strings"
	"time"
)

// EnvironmentName identifies a deployment environment.
type EnvironmentName string

const (
	EnvDev     EnvironmentName = "dev"
	EnvStaging EnvironmentName = "staging"
	EnvProd    EnvironmentName = "prod"

	DefaultEnvironment = EnvDev
)

// Artifact retention policies, as understood by the capture hooks.
const (
	PolicyOnlyOnFailure   = "only-on-failure"
	PolicyOnFailure       = "on-failure"
	PolicyRetainOnFailure = "retain-on-failure"
)

// EnvironmentConfig is the static description of a deployment environment.
// Headless and SlowMo describe the environment's intended launch mode; the
// HEADED and SLOW_MO variables decide the actual launch.
type EnvironmentConfig struct {
	Name             EnvironmentName   `yaml:"name"`
	BaseURL          string            `yaml:"base_url"`
	APIURL           string            `yaml:"api_url"`
	Headless         bool              `yaml:"headless"`
	SlowMo           time.Duration     `yaml:"slow_mo"`
	Timeout          time.Duration     `yaml:"timeout"`
	Retries          int               `yaml:"retries"`
	LogLevel         string            `yaml:"log_level"`
	ScreenshotPolicy string            `yaml:"screenshot_policy"`
	VideoPolicy      string            `yaml:"video_policy"`
	ExtraHeaders     map[string]string `yaml:"extra_headers"`
}

// Clone returns a deep copy so callers never share the registry's maps.
func (e EnvironmentConfig) Clone() EnvironmentConfig {
	e.ExtraHeaders = maps.Clone(e.ExtraHeaders)
	return e
}

// EnvironmentFactory builds an environment record. Overrides are read
// through lookup so construction stays hermetic under test.
type EnvironmentFactory = func(lookup LookupFunc) (EnvironmentConfig, error)

// DefaultEnvironments returns the built-in environment registry.
func DefaultEnvironments() map[EnvironmentName]EnvironmentFactory {
	return map[EnvironmentName]EnvironmentFactory{
		EnvDev: func(lookup LookupFunc) (EnvironmentConfig, error) {
			return environmentWithOverrides(lookup, EnvironmentConfig{
				Name:             EnvDev,
				BaseURL:          "https://dev.example.com",
				APIURL:           "https://api-dev.example.com",
				Headless:         false,
				SlowMo:           100 * time.Millisecond,
				Timeout:          Timeouts.VeryLong,
				Retries:          0,
				LogLevel:         "debug",
				ScreenshotPolicy: PolicyOnlyOnFailure,
				VideoPolicy:      PolicyRetainOnFailure,
				ExtraHeaders:     map[string]string{"X-Test-Environment": "dev"},
			})
		},
		EnvStaging: func(lookup LookupFunc) (EnvironmentConfig, error) {
			return environmentWithOverrides(lookup, EnvironmentConfig{
				Name:             EnvStaging,
				BaseURL:          "https://staging.example.com",
				APIURL:           "https://api-staging.example.com",
				Headless:         true,
				Timeout:          Timeouts.VeryLong,
				Retries:          1,
				LogLevel:         "info",
				ScreenshotPolicy: PolicyOnFailure,
				VideoPolicy:      PolicyOnFailure,
				ExtraHeaders:     map[string]string{"X-Test-Environment": "staging"},
			})
		},
		EnvProd: func(lookup LookupFunc) (EnvironmentConfig, error) {
			return environmentWithOverrides(lookup, EnvironmentConfig{
				Name:             EnvProd,
				BaseURL:          "https://example.com",
				APIURL:           "https://api.example.com",
				Headless:         true,
				Timeout:          Timeouts.VeryLong,
				Retries:          2,
				LogLevel:         "error",
				ScreenshotPolicy: PolicyOnFailure,
				VideoPolicy:      PolicyOnFailure,
				ExtraHeaders:     map[string]string{"X-Test-Environment": "prod"},
			})
		},
	}
}

// environmentWithOverrides applies BASE_URL_<ENV> and API_URL_<ENV>.
func environmentWithOverrides(lookup LookupFunc, base EnvironmentConfig) (EnvironmentConfig, error) {
	suffix := strings.ToUpper(string(base.Name))

	var err error
	if base.BaseURL, err = overrideURL(lookup, "BASE_URL_"+suffix, base.BaseURL); err != nil {
		return EnvironmentConfig{}, err
	}
	if base.APIURL, err = overrideURL(lookup, "API_URL_"+suffix, base.APIURL); err != nil {
		return EnvironmentConfig{}, err
	}
	return base, nil
}

// overrideURL returns the value of key when set, after checking that it is an
// absolute http(s) URL.
func overrideURL(lookup LookupFunc, key, fallback string) (string, error) {
	raw, ok := lookup(key)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return fallback, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("%s: %q is not an absolute http(s) URL", key, raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// overrideString returns the value of key when set and non-empty.
func overrideString(lookup LookupFunc, key, fallback string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return fallback
}
