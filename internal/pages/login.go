// File: internal/pages/login.go
package pages

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/internal/config"
)

// LoginPage drives the site's sign-in form.
type LoginPage struct {
	*BasePage
	site     config.SiteConfig
	locators LocatorTable
}

// NewLoginPage builds the login page object for site.
func NewLoginPage(base *BasePage, site config.SiteConfig) *LoginPage {
	return &LoginPage{BasePage: base, site: site, locators: TableFromSite(site.Selectors, "login")}
}

// Locators returns the page's locator table.
func (p *LoginPage) Locators() LocatorTable { return p.locators }

// URL is the login page address.
func (p *LoginPage) URL() string { return p.site.URL(config.PageLogin) }

// Navigate opens the login page.
func (p *LoginPage) Navigate() error { return p.Goto(p.URL()) }

func (p *LoginPage) fill(field, value string) error {
	sel, err := p.locators.Resolve(p.page, field)
	if err != nil {
		return err
	}
	return p.Fill(sel, value)
}

// EnterUsername types into the username field.
func (p *LoginPage) EnterUsername(username string) error { return p.fill("username", username) }

// EnterPassword types into the password field.
func (p *LoginPage) EnterPassword(password string) error { return p.fill("password", password) }

// Submit clicks the login button and waits for the resulting page to load.
func (p *LoginPage) Submit() error {
	sel, err := p.locators.Resolve(p.page, "submit")
	if err != nil {
		return err
	}
	if err := p.Click(sel); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

// Login navigates, fills both fields and submits. The first failing step's
// error is returned unchanged.
func (p *LoginPage) Login(username, password string) error {
	if err := p.Navigate(); err != nil {
		return err
	}
	if err := p.EnterUsername(username); err != nil {
		return err
	}
	if err := p.EnterPassword(password); err != nil {
		return err
	}
	return p.Submit()
}

// CheckRememberMe ticks the remember-me box. Sites without one are skipped.
func (p *LoginPage) CheckRememberMe() error {
	sel, err := p.locators.Resolve(p.page, "rememberMe")
	if errors.Is(err, ErrElementNotFound) {
		p.logger.Debug("No remember-me checkbox on this site; skipping.")
		return nil
	}
	if err != nil {
		return err
	}
	return p.Check(sel)
}

// IsErrorVisible reports whether a login error is shown.
func (p *LoginPage) IsErrorVisible() bool {
	return p.anyVisible("error")
}

// ErrorText returns the login error message.
func (p *LoginPage) ErrorText() (string, error) {
	sel, err := p.locators.Resolve(p.page, "error")
	if err != nil {
		return "", err
	}
	text, err := p.Text(sel)
	return strings.TrimSpace(text), err
}

// IsSuccessVisible reports whether the post-login landing content is shown.
func (p *LoginPage) IsSuccessVisible() bool {
	return p.anyVisible("success")
}

// IsDisplayed reports whether the browser is still on the login form.
func (p *LoginPage) IsDisplayed() bool {
	return p.anyVisible("username") && p.anyVisible("submit")
}

// WaitForLoaded waits for the username field to appear.
func (p *LoginPage) WaitForLoaded() error {
	return p.WaitFor(p.locators.Union("username"), config.Timeouts.Long)
}

func (p *LoginPage) anyVisible(field string) bool {
	for _, sel := range p.locators[field] {
		if p.IsVisible(sel) {
			return true
		}
	}
	p.logger.Debug("No candidate visible.", zap.String("field", field))
	return false
}
