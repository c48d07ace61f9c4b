package config

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// envMap is a hermetic LookupFunc.
type envMap map[string]string

func (m envMap) lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func newObservedResolver(t *testing.T, env envMap, opts ...ResolverOption) (*Resolver, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	if env == nil {
		env = envMap{}
	}
	opts = append([]ResolverOption{WithLookup(env.lookup)}, opts...)
	return NewResolver(zap.New(core), opts...), logs
}

func warnings(logs *observer.ObservedLogs) int {
	return logs.FilterLevelExact(zapcore.WarnLevel).Len()
}

func TestResolveEnvironment_KnownNames(t *testing.T) {
	r, logs := newObservedResolver(t, nil)

	staging, err := r.ResolveEnvironment("staging")
	require.NoError(t, err)

	want := EnvironmentConfig{
		Name:             EnvStaging,
		BaseURL:          "https://staging.example.com",
		APIURL:           "https://api-staging.example.com",
		Headless:         true,
		Timeout:          30 * time.Second,
		Retries:          1,
		LogLevel:         "info",
		ScreenshotPolicy: PolicyOnFailure,
		VideoPolicy:      PolicyOnFailure,
		ExtraHeaders:     map[string]string{"X-Test-Environment": "staging"},
	}
	if diff := cmp.Diff(want, staging); diff != "" {
		t.Errorf("staging record mismatch (-want +got):\n%s", diff)
	}

	dev := r.Environment("dev")
	assert.False(t, dev.Headless)
	assert.Equal(t, 100*time.Millisecond, dev.SlowMo)
	assert.Equal(t, PolicyRetainOnFailure, dev.VideoPolicy)

	prod := r.Environment("prod")
	assert.Equal(t, "https://example.com", prod.BaseURL)
	assert.Equal(t, 2, prod.Retries)

	assert.Zero(t, warnings(logs))
}

func TestResolveSite_KnownNames(t *testing.T) {
	r, logs := newObservedResolver(t, nil)

	site1 := r.Site("site1")
	assert.Equal(t, "https://www.saucedemo.com", site1.BaseURL)
	assert.Equal(t, Credentials{Username: "standard_user", Password: "secret_sauce"}, site1.Credentials)
	assert.Equal(t, []string{"auth", "dashboard", "profile", "settings"}, site1.Features.Names())
	assert.Equal(t, "#user-name", site1.Selectors["login.username"][0])
	assert.Equal(t, "https://www.saucedemo.com/inventory.html", site1.URL(PageDashboard))

	site2 := r.Site("site2")
	assert.Equal(t, "problem_user", site2.Credentials.Username)
	assert.True(t, site2.Features.Enabled("marketplace"))
	assert.False(t, site2.Features.Enabled("settings"))

	assert.Zero(t, warnings(logs))
}

func TestResolve_UnknownNameFallsBackWithOneWarning(t *testing.T) {
	r, logs := newObservedResolver(t, nil)

	env := r.Environment("qa")
	assert.Equal(t, EnvDev, env.Name)
	assert.Equal(t, 1, warnings(logs))

	entry := logs.FilterLevelExact(zapcore.WarnLevel).All()[0]
	assert.Equal(t, "qa", entry.ContextMap()["requested"])
	assert.Equal(t, "environment", entry.ContextMap()["kind"])

	site := r.Site("site9")
	assert.Equal(t, Site1, site.Name)
	assert.Equal(t, 2, warnings(logs), "each unknown lookup logs exactly one warning")
}

func TestResolve_NameNormalization(t *testing.T) {
	r, logs := newObservedResolver(t, nil)

	assert.Equal(t, EnvStaging, r.Environment("  STAGING ").Name)
	assert.Equal(t, Site2, r.Site("Site2").Name)
	assert.Equal(t, EnvDev, r.Environment("").Name)
	assert.Equal(t, Site1, r.Site("   ").Name)
	assert.Zero(t, warnings(logs), "empty names mean default without a warning")
}

func TestResolve_FactoryFailureFallsBack(t *testing.T) {
	r, logs := newObservedResolver(t, envMap{"BASE_URL_STAGING": "not a url"})

	env, err := r.ResolveEnvironment("staging")
	require.NoError(t, err)
	assert.Equal(t, EnvDev, env.Name)
	assert.Equal(t, 1, warnings(logs))
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "BASE_URL_STAGING")
}

func TestResolve_Overrides(t *testing.T) {
	r, _ := newObservedResolver(t, envMap{
		"SITE2_URL":      "https://shop.internal/",
		"SITE2_USERNAME": "visual_user",
		"SITE2_PASSWORD": "hunter2",
		"API_URL_PROD":   "https://api.internal",
	})

	site := r.Site("site2")
	assert.Equal(t, "https://shop.internal", site.BaseURL)
	assert.Equal(t, "visual_user", site.Credentials.Username)
	assert.Equal(t, "hunter2", site.Credentials.Password)
	assert.Equal(t, "https://shop.internal/", site.URL(PageLogin))

	assert.Equal(t, "https://api.internal", r.Environment("prod").APIURL)
}

func TestResolve_DefaultMissingIsFatal(t *testing.T) {
	r, _ := newObservedResolver(t, nil,
		WithEnvironmentRegistry(map[EnvironmentName]EnvironmentFactory{}),
		WithSiteRegistry(map[SiteName]SiteFactory{
			Site2: DefaultSites()[Site2],
		}),
	)

	_, err := r.ResolveEnvironment("dev")
	assert.True(t, errors.Is(err, ErrDefaultConfigMissing))

	_, err = r.ResolveSite("unknown")
	assert.ErrorIs(t, err, ErrDefaultConfigMissing)

	site, err := r.ResolveSite("site2")
	require.NoError(t, err)
	assert.Equal(t, Site2, site.Name)

	assert.Panics(t, func() { r.Environment("dev") })
}

func TestResolve_RecordsAreIsolatedCopies(t *testing.T) {
	r, _ := newObservedResolver(t, nil)

	first := r.Site("site1")
	first.Selectors["login.username"][0] = "#mutated"
	first.Features["auth"] = false
	first.Paths[PageLogin] = "/elsewhere"

	env := r.Environment("dev")
	env.ExtraHeaders["X-Test-Environment"] = "mutated"

	second := r.Site("site1")
	assert.Equal(t, "#user-name", second.Selectors["login.username"][0])
	assert.True(t, second.Features.Enabled("auth"))
	assert.Equal(t, "/", second.Paths[PageLogin])
	assert.Equal(t, "dev", r.Environment("dev").ExtraHeaders["X-Test-Environment"])

	if diff := cmp.Diff(r.Site("site1"), second); diff != "" {
		t.Errorf("repeated resolution differs (-first +second):\n%s", diff)
	}
}

func TestResolver_Names(t *testing.T) {
	r := NewResolver(nil)
	assert.Equal(t, []string{"dev", "prod", "staging"}, r.EnvironmentNames())
	assert.Equal(t, []string{"site1", "site2"}, r.SiteNames())
}

func TestCredentialsMasked(t *testing.T) {
	c := Credentials{Username: "standard_user", Password: "secret_sauce"}
	assert.Equal(t, "********", c.Masked().Password)
	assert.Equal(t, "secret_sauce", c.Password)
	assert.Empty(t, Credentials{}.Masked().Password)
}
