// File: internal/config/site.go
package config

import (
	"maps"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// SiteName identifies a site under test.
type SiteName string

const (
	Site1 SiteName = "site1"
	Site2 SiteName = "site2"

	DefaultSite = Site1
)

// Feature flags a site may advertise.
const (
	FeatureAuth        = "auth"
	FeatureDashboard   = "dashboard"
	FeatureProfile     = "profile"
	FeatureSettings    = "settings"
	FeatureMarketplace = "marketplace"
)

// Credentials is a username/password pair for the site's test account.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Masked returns a copy safe for printing.
func (c Credentials) Masked() Credentials {
	if c.Password != "" {
		c.Password = "********"
	}
	return c
}

// Features is the set of capabilities a site exposes.
type Features map[string]bool

// Enabled reports whether the named feature is on.
func (f Features) Enabled(name string) bool { return f[strings.ToLower(name)] }

// Names returns the enabled feature names in sorted order.
func (f Features) Names() []string {
	names := lo.Keys(lo.PickBy(f, func(_ string, on bool) bool { return on }))
	slices.Sort(names)
	return names
}

// SiteConfig is the static description of a site under test.
type SiteConfig struct {
	Name        SiteName    `yaml:"name"`
	BaseURL     string      `yaml:"base_url"`
	APIURL      string      `yaml:"api_url"`
	Credentials Credentials `yaml:"credentials"`
	Features    Features    `yaml:"features"`
	// Paths maps a page name to the path appended to BaseURL.
	Paths map[string]string `yaml:"paths"`
	// Selectors maps a semantic element name to ordered candidate locators.
	Selectors map[string][]string `yaml:"selectors"`
}

// Clone returns a deep copy so callers never share the registry's maps.
func (s SiteConfig) Clone() SiteConfig {
	s.Features = maps.Clone(s.Features)
	s.Paths = maps.Clone(s.Paths)
	if s.Selectors != nil {
		sel := make(map[string][]string, len(s.Selectors))
		for k, v := range s.Selectors {
			sel[k] = slices.Clone(v)
		}
		s.Selectors = sel
	}
	return s
}

// URL joins the site's base URL with the path registered for page. Unknown
// pages resolve to the base URL.
func (s SiteConfig) URL(page string) string {
	return strings.TrimRight(s.BaseURL, "/") + s.Paths[page]
}

// Page names used in SiteConfig.Paths.
const (
	PageLogin     = "login"
	PageDashboard = "dashboard"
	PageProfile   = "profile"
	PageCart      = "cart"
	PageCheckout  = "checkout"
)

// storefrontPaths are the routes of the demo storefront both sites run on.
func storefrontPaths() map[string]string {
	return map[string]string{
		PageLogin:     "/",
		PageDashboard: "/inventory.html",
		PageProfile:   "/profile",
		PageCart:      "/cart.html",
		PageCheckout:  "/checkout-step-one.html",
	}
}

// storefrontSelectors is the canonical selector scheme. Storefront selectors
// come first; generic application selectors trail as fallbacks.
func storefrontSelectors() map[string][]string {
	return map[string][]string{
		// login
		"login.username":   {"#user-name", "[data-test='username']", "input[name='username']"},
		"login.password":   {"#password", "[data-test='password']", "input[name='password']"},
		"login.submit":     {"#login-button", "[data-test='login-button']", "button[type='submit']"},
		"login.error":      {"[data-test='error']", ".error-message-container", ".error-message"},
		"login.success":    {".inventory_list", ".success-message"},
		"login.rememberMe": {"#remember-me", "input[name='remember']"},
		"login.container":  {".login_wrapper", ".login-box", "form#login"},
		"login.forgot":     {".forgot-password", "a[href*='forgot']"},
		// dashboard
		"dashboard.title":         {".title", "[data-test='title']", "h1"},
		"dashboard.container":     {"#inventory_container", ".inventory_container", ".dashboard"},
		"dashboard.widgets":       {".inventory_item", ".widget"},
		"dashboard.statistics":    {".inventory_item_price", ".stat-card"},
		"dashboard.menuButton":    {"#react-burger-menu-btn", ".bm-burger-button", ".nav-toggle"},
		"dashboard.menuItems":     {".bm-item", ".nav-item"},
		"dashboard.logout":        {"#logout_sidebar_link", "a:has-text('Logout')"},
		"dashboard.search":        {"input[type='search']", "#search", ".search-input"},
		"dashboard.searchResults": {".inventory_item_name", ".search-result"},
		"dashboard.filters":       {".product_sort_container", "select.filter"},
		"dashboard.sort":          {"[data-test='product-sort-container']", ".product_sort_container", "select.sort"},
		"dashboard.products":      {".inventory_item", ".product"},
		"dashboard.cartBadge":     {".shopping_cart_badge", ".cart-count"},
		// profile
		"profile.container":       {".profile-container", "#profile"},
		"profile.info":            {".profile-info", ".user-info"},
		"profile.picture":         {".profile-picture", "img.avatar"},
		"profile.name":            {".profile-name", "[data-test='profile-name']"},
		"profile.edit":            {"button.edit-profile", "[data-test='edit-profile']"},
		"profile.save":            {"button.save-profile", "[data-test='save-profile']", "button[type='submit']"},
		"profile.success":         {".success-message", ".alert-success"},
		"profile.changePassword":  {"button.change-password", "[data-test='change-password']"},
		"profile.currentPassword": {"input[name='currentPassword']", "#current-password"},
		"profile.newPassword":     {"input[name='newPassword']", "#new-password"},
		"profile.confirmPassword": {"input[name='confirmPassword']", "#confirm-password"},
		"profile.activityTab":     {"[data-tab='activity']", "a:has-text('Activity')"},
		"profile.activityItems":   {".activity-item", ".activity-log li"},
		"profile.notifications":   {".notification-settings input[type='checkbox']"},
	}
}

// SiteFactory builds a site record.
type SiteFactory = func(lookup LookupFunc) (SiteConfig, error)

// DefaultSites returns the built-in site registry.
func DefaultSites() map[SiteName]SiteFactory {
	return map[SiteName]SiteFactory{
		Site1: func(lookup LookupFunc) (SiteConfig, error) {
			return siteWithOverrides(lookup, SiteConfig{
				Name:        Site1,
				BaseURL:     "https://www.saucedemo.com",
				APIURL:      "https://www.saucedemo.com/api",
				Credentials: Credentials{Username: "standard_user", Password: "secret_sauce"},
				Features: Features{
					FeatureAuth:      true,
					FeatureDashboard: true,
					FeatureProfile:   true,
					FeatureSettings:  true,
				},
				Paths:     storefrontPaths(),
				Selectors: storefrontSelectors(),
			})
		},
		Site2: func(lookup LookupFunc) (SiteConfig, error) {
			return siteWithOverrides(lookup, SiteConfig{
				Name:        Site2,
				BaseURL:     "https://www.saucedemo.com",
				APIURL:      "https://www.saucedemo.com/api",
				Credentials: Credentials{Username: "problem_user", Password: "secret_sauce"},
				Features: Features{
					FeatureAuth:        true,
					FeatureDashboard:   true,
					FeatureProfile:     true,
					FeatureMarketplace: true,
				},
				Paths:     storefrontPaths(),
				Selectors: storefrontSelectors(),
			})
		},
	}
}

// siteWithOverrides applies SITEn_URL, SITEn_API_URL, SITEn_USERNAME and
// SITEn_PASSWORD.
func siteWithOverrides(lookup LookupFunc, base SiteConfig) (SiteConfig, error) {
	prefix := strings.ToUpper(string(base.Name)) + "_"

	var err error
	if base.BaseURL, err = overrideURL(lookup, prefix+"URL", base.BaseURL); err != nil {
		return SiteConfig{}, err
	}
	if base.APIURL, err = overrideURL(lookup, prefix+"API_URL", base.APIURL); err != nil {
		return SiteConfig{}, err
	}
	base.Credentials.Username = overrideString(lookup, prefix+"USERNAME", base.Credentials.Username)
	base.Credentials.Password = overrideString(lookup, prefix+"PASSWORD", base.Credentials.Password)
	return base, nil
}
