// File: internal/config/resolver.go
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ErrDefaultConfigMissing is returned when the fallback record itself is not
// registered. It is fatal for the run.
var ErrDefaultConfigMissing = errors.New("default configuration missing from registry")

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Resolver selects environment and site records by name from finite
// registries, falling back to the defaults for unknown names.
type Resolver struct {
	logger       *zap.Logger
	lookup       LookupFunc
	environments map[EnvironmentName]EnvironmentFactory
	sites        map[SiteName]SiteFactory
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLookup replaces os.LookupEnv for override variables.
func WithLookup(lookup LookupFunc) ResolverOption {
	return func(r *Resolver) { r.lookup = lookup }
}

// WithEnvironmentRegistry replaces the built-in environment registry.
func WithEnvironmentRegistry(reg map[EnvironmentName]EnvironmentFactory) ResolverOption {
	return func(r *Resolver) { r.environments = reg }
}

// WithSiteRegistry replaces the built-in site registry.
func WithSiteRegistry(reg map[SiteName]SiteFactory) ResolverOption {
	return func(r *Resolver) { r.sites = reg }
}

// NewResolver creates a resolver over the built-in registries.
func NewResolver(logger *zap.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		logger:       logger.Named("config_resolver"),
		lookup:       os.LookupEnv,
		environments: DefaultEnvironments(),
		sites:        DefaultSites(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveEnvironment returns the record registered under name, or the dev
// record when name is unknown or its construction fails.
func (r *Resolver) ResolveEnvironment(name string) (EnvironmentConfig, error) {
	cfg, err := resolve(r, "environment", name, DefaultEnvironment, r.environments)
	if err != nil {
		return EnvironmentConfig{}, err
	}
	return cfg.Clone(), nil
}

// ResolveSite returns the record registered under name, or the site1 record
// when name is unknown or its construction fails.
func (r *Resolver) ResolveSite(name string) (SiteConfig, error) {
	cfg, err := resolve(r, "site", name, DefaultSite, r.sites)
	if err != nil {
		return SiteConfig{}, err
	}
	return cfg.Clone(), nil
}

// Environment is ResolveEnvironment for callers that treat a missing default
// as a programming error.
func (r *Resolver) Environment(name string) EnvironmentConfig {
	cfg, err := r.ResolveEnvironment(name)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Site is ResolveSite for callers that treat a missing default as a
// programming error.
func (r *Resolver) Site(name string) SiteConfig {
	cfg, err := r.ResolveSite(name)
	if err != nil {
		panic(err)
	}
	return cfg
}

// EnvironmentNames lists the registered environments in sorted order.
func (r *Resolver) EnvironmentNames() []string {
	return sortedNames(r.environments)
}

// SiteNames lists the registered sites in sorted order.
func (r *Resolver) SiteNames() []string {
	return sortedNames(r.sites)
}

func sortedNames[K ~string, V any](reg map[K]V) []string {
	names := lo.Map(lo.Keys(reg), func(k K, _ int) string { return string(k) })
	slices.Sort(names)
	return names
}

// resolve is the single lookup routine shared by both kinds. It logs at most
// one warning per call.
func resolve[K ~string, C any](r *Resolver, kind, name string, def K, reg map[K]func(LookupFunc) (C, error)) (C, error) {
	var zero C
	key := K(strings.ToLower(strings.TrimSpace(name)))

	if key != "" && key != def {
		if factory, ok := reg[key]; ok {
			cfg, err := factory(r.lookup)
			if err == nil {
				return cfg, nil
			}
			r.logger.Warn("Failed to build configuration; falling back to default.",
				zap.String("kind", kind),
				zap.String("requested", name),
				zap.String("default", string(def)),
				zap.Error(err))
		} else {
			r.logger.Warn("Unknown configuration name; falling back to default.",
				zap.String("kind", kind),
				zap.String("requested", name),
				zap.String("default", string(def)),
				zap.Strings("available", sortedNames(reg)))
		}
	}

	factory, ok := reg[def]
	if !ok {
		return zero, fmt.Errorf("%s %q: %w", kind, def, ErrDefaultConfigMissing)
	}
	cfg, err := factory(r.lookup)
	if err != nil {
		return zero, fmt.Errorf("%s %q could not be built: %w: %w", kind, def, ErrDefaultConfigMissing, err)
	}
	return cfg, nil
}
