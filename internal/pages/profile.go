// File: internal/pages/profile.go
package pages

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xkilldash9x/lancet/internal/config"
)

var fieldNameSpaces = regexp.MustCompile(`\s+`)

// ProfilePage drives the user profile screen.
type ProfilePage struct {
	*BasePage
	site     config.SiteConfig
	locators LocatorTable
}

// NewProfilePage builds the profile page object for site.
func NewProfilePage(base *BasePage, site config.SiteConfig) *ProfilePage {
	return &ProfilePage{BasePage: base, site: site, locators: TableFromSite(site.Selectors, "profile")}
}

// Locators returns the page's locator table.
func (p *ProfilePage) Locators() LocatorTable { return p.locators }

// URL is the profile address.
func (p *ProfilePage) URL() string { return p.site.URL(config.PageProfile) }

// Navigate opens the profile page.
func (p *ProfilePage) Navigate() error { return p.Goto(p.URL()) }

// WaitForLoaded waits for the profile information block.
func (p *ProfilePage) WaitForLoaded() error {
	return p.WaitFor(p.locators.Union("info"), config.Timeouts.Long)
}

func (p *ProfilePage) visible(field string) bool {
	sel, err := p.locators.Resolve(p.page, field)
	return err == nil && p.IsVisible(sel)
}

func (p *ProfilePage) click(field string) error {
	sel, err := p.locators.Resolve(p.page, field)
	if err != nil {
		return err
	}
	if err := p.Click(sel); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

// IsInfoVisible reports whether profile information is shown.
func (p *ProfilePage) IsInfoVisible() bool { return p.visible("info") }

// IsPictureVisible reports whether the profile picture is shown.
func (p *ProfilePage) IsPictureVisible() bool { return p.visible("picture") }

// IsSuccessVisible reports whether a success message is shown.
func (p *ProfilePage) IsSuccessVisible() bool { return p.visible("success") }

// Name returns the displayed profile name.
func (p *ProfilePage) Name() (string, error) {
	sel, err := p.locators.Resolve(p.page, "name")
	if err != nil {
		return "", err
	}
	text, err := p.Text(sel)
	return strings.TrimSpace(text), err
}

// Edit switches the profile into edit mode.
func (p *ProfilePage) Edit() error { return p.click("edit") }

// FieldSelector returns the selector for the input labelled name, e.g.
// "First Name" becomes input[name="first-name"].
func FieldSelector(name string) string {
	slug := fieldNameSpaces.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return fmt.Sprintf(`input[name="%s"], input[placeholder*="%s"]`, slug, name)
}

// EditField replaces the value of the input labelled name.
func (p *ProfilePage) EditField(name, value string) error {
	return p.Fill(FieldSelector(name), value)
}

// Save submits profile changes.
func (p *ProfilePage) Save() error { return p.click("save") }

// SuccessText returns the success message.
func (p *ProfilePage) SuccessText() (string, error) {
	sel, err := p.locators.Resolve(p.page, "success")
	if err != nil {
		return "", err
	}
	text, err := p.Text(sel)
	return strings.TrimSpace(text), err
}

// ChangePassword opens the password form, fills it and saves.
func (p *ProfilePage) ChangePassword(current, next string) error {
	if err := p.click("changePassword"); err != nil {
		return err
	}
	for _, f := range []struct{ field, value string }{
		{"currentPassword", current},
		{"newPassword", next},
		{"confirmPassword", next},
	} {
		sel, err := p.locators.Resolve(p.page, f.field)
		if err != nil {
			return err
		}
		if err := p.Fill(sel, f.value); err != nil {
			return err
		}
	}
	return p.Save()
}

// OpenActivityLog switches to the activity tab.
func (p *ProfilePage) OpenActivityLog() error { return p.click("activityTab") }

// ActivityCount is the number of entries in the activity log.
func (p *ProfilePage) ActivityCount() (int, error) {
	sel, err := p.locators.Resolve(p.page, "activityItems")
	if err != nil {
		return 0, nil
	}
	return p.Count(sel)
}

// ToggleNotification flips the notification checkbox at index.
func (p *ProfilePage) ToggleNotification(index int) error {
	sel, err := p.locators.Resolve(p.page, "notifications")
	if err != nil {
		return err
	}
	n, err := p.Count(sel)
	if err != nil {
		return err
	}
	if index < 0 || index >= n {
		return &ElementNotFoundError{Selector: fmt.Sprintf("%s >> nth=%d", sel, index)}
	}
	if err := p.page.Locator(sel).Nth(index).Click(); err != nil {
		return fmt.Errorf("toggle notification %d: %w", index, err)
	}
	return nil
}
