package pages_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/internal/config"
	"github.com/xkilldash9x/lancet/internal/pages"
	"github.com/xkilldash9x/lancet/internal/testing/pwfake"
)

func noEnv(string) (string, bool) { return "", false }

func site1(t *testing.T) config.SiteConfig {
	t.Helper()
	return config.NewResolver(zap.NewNop(), config.WithLookup(noEnv)).Site("site1")
}

// storefront returns a fake login page whose submit button signs in
// standard_user/secret_sauce and shows an error for anything else.
func storefront(site config.SiteConfig) *pwfake.Page {
	page := pwfake.NewPage("about:blank")
	page.Set("#user-name", pwfake.Element{})
	page.Set("#password", pwfake.Element{})
	page.Set("#login-button", pwfake.Element{})
	page.OnClick("#login-button", func(p *pwfake.Page) {
		user, _ := p.Element("#user-name")
		pass, _ := p.Element("#password")
		if user.Value == site.Credentials.Username && pass.Value == site.Credentials.Password {
			p.SetURL(site.URL(config.PageDashboard))
			p.Remove("#user-name")
			p.Remove("#password")
			p.Remove("#login-button")
			p.Set("#inventory_container", pwfake.Element{})
			p.Set(".inventory_list", pwfake.Element{})
			p.Set(".title", pwfake.Element{Text: " Products "})
			p.Set(".inventory_item", pwfake.Element{Count: 6})
			return
		}
		p.Set("[data-test='error']", pwfake.Element{Text: "Epic sadface: Username and password do not match any user in this service"})
	})
	return page
}

func TestLoginPage_ValidCredentials(t *testing.T) {
	site := site1(t)
	page := storefront(site)
	base := pages.NewBasePage(page, zap.NewNop())
	login := pages.NewLoginPage(base, site)

	require.NoError(t, login.Login("standard_user", "secret_sauce"))

	assert.Equal(t, []string{"https://www.saucedemo.com/"}, page.Gotos())
	assert.Equal(t, []string{"fill:#user-name", "fill:#password", "click:#login-button"}, page.Actions())
	assert.Equal(t, "https://www.saucedemo.com/inventory.html", login.CurrentURL())
	assert.True(t, login.IsSuccessVisible())
	assert.False(t, login.IsErrorVisible())
	assert.False(t, login.IsDisplayed())

	dash := pages.NewDashboardPage(base, site)
	assert.True(t, dash.IsLoaded())
	heading, err := dash.Heading()
	require.NoError(t, err)
	assert.Equal(t, "Products", heading)
	n, err := dash.ProductCount()
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestLoginPage_InvalidCredentials(t *testing.T) {
	site := site1(t)
	page := storefront(site)
	login := pages.NewLoginPage(pages.NewBasePage(page, zap.NewNop()), site)

	require.NoError(t, login.Login("standard_user", "wrong"))

	assert.True(t, login.IsErrorVisible())
	msg, err := login.ErrorText()
	require.NoError(t, err)
	assert.Contains(t, msg, "do not match")
	assert.Equal(t, login.URL(), login.CurrentURL())
	assert.True(t, login.IsDisplayed())
}

func TestLoginPage_FirstFailureIsReturned(t *testing.T) {
	site := site1(t)
	page := pwfake.NewPage("about:blank")
	login := pages.NewLoginPage(pages.NewBasePage(page, zap.NewNop()), site)

	err := login.Login("standard_user", "secret_sauce")
	require.Error(t, err)
	var nf *pages.ElementNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "username", nf.Selector)
	assert.Equal(t, site.Selectors["login.username"], nf.Candidates)
	assert.Empty(t, page.Actions())

	page.GotoErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	err = login.Login("standard_user", "secret_sauce")
	assert.ErrorIs(t, err, page.GotoErr)
}

func TestLoginPage_RememberMeIsOptional(t *testing.T) {
	site := site1(t)
	page := pwfake.NewPage("about:blank")
	login := pages.NewLoginPage(pages.NewBasePage(page, zap.NewNop()), site)

	require.NoError(t, login.CheckRememberMe())
	assert.Empty(t, page.Actions())

	page.Set("input[name='remember']", pwfake.Element{})
	require.NoError(t, login.CheckRememberMe())
	el, _ := page.Element("input[name='remember']")
	assert.True(t, el.Checked)
}

func TestBasePage_MissingElement(t *testing.T) {
	page := pwfake.NewPage("about:blank")
	base := pages.NewBasePage(page, zap.NewNop())

	for name, op := range map[string]func() error{
		"click": func() error { return base.Click("#does-not-exist") },
		"fill":  func() error { return base.Fill("#does-not-exist", "x") },
		"text": func() error {
			_, err := base.Text("#does-not-exist")
			return err
		},
		"select": func() error { return base.SelectOption("#does-not-exist", "a") },
	} {
		t.Run(name, func(t *testing.T) {
			err := op()
			require.Error(t, err)
			assert.ErrorIs(t, err, pages.ErrElementNotFound)
			assert.Contains(t, err.Error(), "#does-not-exist")
		})
	}

	assert.False(t, base.IsVisible("#does-not-exist"))
	assert.False(t, base.Exists("#does-not-exist"))
	assert.Error(t, base.WaitFor("#does-not-exist", 0))
	assert.NoError(t, base.WaitForHidden("#does-not-exist", 0))
}

func TestBasePage_Operations(t *testing.T) {
	page := pwfake.NewPage("https://example.test/")
	page.SetTitle("Example")
	page.Set("#name", pwfake.Element{Value: "old", Attrs: map[string]string{"placeholder": "Name"}})
	page.Set("#menu", pwfake.Element{})
	page.Set("select#size", pwfake.Element{})
	page.Set("body", pwfake.Element{Text: "hello world"})
	base := pages.NewBasePage(page, zap.NewNop())

	require.NoError(t, base.Clear("#name"))
	require.NoError(t, base.Type("#name", "abc"))
	el, _ := page.Element("#name")
	assert.Equal(t, "abc", el.Value)

	v, err := base.Attribute("#name", "placeholder")
	require.NoError(t, err)
	assert.Equal(t, "Name", v)

	require.NoError(t, base.SelectOption("select#size", "large"))
	el, _ = page.Element("select#size")
	assert.Equal(t, []string{"large"}, el.Selected)

	require.NoError(t, base.Hover("#menu"))
	require.NoError(t, base.DoubleClick("#menu"))
	require.NoError(t, base.RightClick("#menu"))
	require.NoError(t, base.PressKey("Escape"))
	require.NoError(t, base.Reload())
	require.NoError(t, base.GoBack())

	assert.Equal(t, []string{
		"clear:#name", "type:#name", "select:select#size",
		"hover:#menu", "dblclick:#menu", "rightclick:#menu",
		"reload:", "back:",
	}, page.Actions())
	assert.Equal(t, []string{"Escape"}, page.Keys())

	title, err := base.Title()
	require.NoError(t, err)
	assert.Equal(t, "Example", title)
	text, err := base.PageText()
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestBasePage_Screenshot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	page := pwfake.NewPage("about:blank")
	base := pages.NewBasePage(page, zap.NewNop())

	path, err := base.Screenshot(dir, "login page")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Regexp(t, `^login_page-.*\.png$`, filepath.Base(path))
	_, err = os.Stat(path)
	assert.NoError(t, err)
	require.Len(t, page.Screenshots(), 1)
	assert.True(t, *page.Screenshots()[0].FullPage)
}

func TestBasePage_DialogQueue(t *testing.T) {
	page := pwfake.NewPage("about:blank")
	base := pages.NewBasePage(page, zap.NewNop())

	base.AcceptNextDialog()
	base.DismissNextDialog()
	base.AcceptNextDialog()

	assert.Equal(t, 1, page.DialogHandlers(), "one listener regardless of queued decisions")
	assert.Equal(t, 3, base.PendingDialogs())
}

func TestLocatorTable(t *testing.T) {
	site := site1(t)
	table := pages.TableFromSite(site.Selectors, "login")

	assert.Equal(t, []string{"container", "error", "forgot", "password", "rememberMe", "submit", "success", "username"}, table.Fields())
	assert.Equal(t, "#user-name, [data-test='username'], input[name='username']", table.Union("username"))

	page := pwfake.NewPage("about:blank")
	page.Set("input[name='username']", pwfake.Element{})
	sel, err := table.Resolve(page, "username")
	require.NoError(t, err)
	assert.Equal(t, "input[name='username']", sel, "falls back to a later candidate")

	page.Set("#user-name", pwfake.Element{})
	sel, err = table.Resolve(page, "username")
	require.NoError(t, err)
	assert.Equal(t, "#user-name", sel, "earlier candidates win")

	_, err = table.Resolve(page, "nope")
	assert.ErrorIs(t, err, pages.ErrElementNotFound)

	table["username"][0] = "mutated"
	assert.Equal(t, "#user-name", site.Selectors["login.username"][0], "table does not alias the site map")
}

func TestDashboardPage(t *testing.T) {
	site := site1(t)
	page := pwfake.NewPage(site.URL(config.PageDashboard))
	page.Set("#inventory_container", pwfake.Element{})
	page.Set("#react-burger-menu-btn", pwfake.Element{})
	page.Set(".bm-item", pwfake.Element{Count: 3, Text: "All Items"})
	page.Set("#logout_sidebar_link", pwfake.Element{})
	page.Set("[data-test='product-sort-container']", pwfake.Element{})
	page.Set("input[type='search']", pwfake.Element{})
	page.OnClick("#logout_sidebar_link", func(p *pwfake.Page) { p.SetURL(site.URL(config.PageLogin)) })
	dash := pages.NewDashboardPage(pages.NewBasePage(page, zap.NewNop()), site)

	require.NoError(t, dash.WaitForLoaded())

	n, err := dash.MenuItemCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, dash.ClickMenuItem("All"))
	err = dash.ClickMenuItem("Settings")
	assert.ErrorIs(t, err, pages.ErrElementNotFound)

	require.NoError(t, dash.SortBy("lohi"))
	el, _ := page.Element("[data-test='product-sort-container']")
	assert.Equal(t, []string{"lohi"}, el.Selected)

	require.NoError(t, dash.Search("backpack"))
	assert.Equal(t, []string{"Enter"}, page.Keys())
	count, err := dash.SearchResultCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	err = dash.ApplyFilter("Status", "Active")
	assert.ErrorIs(t, err, pages.ErrElementNotFound)
	page.Set(".product_sort_container", pwfake.Element{})
	require.NoError(t, dash.ApplyFilter("Status", "Active"))

	require.NoError(t, dash.Logout())
	assert.Equal(t, "https://www.saucedemo.com/", page.URL())
}

func TestDashboardPage_OpenMenu(t *testing.T) {
	site := site1(t)

	t.Run("no menu button is skipped", func(t *testing.T) {
		page := pwfake.NewPage(site.URL(config.PageDashboard))
		dash := pages.NewDashboardPage(pages.NewBasePage(page, zap.NewNop()), site)
		assert.NoError(t, dash.OpenMenu())
		assert.Empty(t, page.Actions())
	})

	t.Run("driver errors surface", func(t *testing.T) {
		page := pwfake.NewPage(site.URL(config.PageDashboard))
		page.Set("#react-burger-menu-btn", pwfake.Element{})
		detached := errors.New("frame was detached")
		page.CountErr = detached
		dash := pages.NewDashboardPage(pages.NewBasePage(page, zap.NewNop()), site)

		err := dash.OpenMenu()
		assert.ErrorIs(t, err, detached)
		assert.NotErrorIs(t, err, pages.ErrElementNotFound)
	})
}

func TestProfilePage(t *testing.T) {
	site := site1(t)
	page := pwfake.NewPage(site.URL(config.PageProfile))
	page.Set(".profile-info", pwfake.Element{})
	page.Set(".profile-name", pwfake.Element{Text: "Jane Doe\n"})
	page.Set("button.edit-profile", pwfake.Element{})
	page.Set("button.save-profile", pwfake.Element{})
	page.Set(`input[name="first-name"], input[placeholder*="First Name"]`, pwfake.Element{})
	page.Set(".notification-settings input[type='checkbox']", pwfake.Element{Count: 2})
	page.OnClick("button.save-profile", func(p *pwfake.Page) {
		p.Set(".success-message", pwfake.Element{Text: "Profile updated successfully"})
	})
	profile := pages.NewProfilePage(pages.NewBasePage(page, zap.NewNop()), site)

	require.NoError(t, profile.WaitForLoaded())
	assert.True(t, profile.IsInfoVisible())
	assert.False(t, profile.IsPictureVisible())

	name, err := profile.Name()
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", name)

	require.NoError(t, profile.Edit())
	require.NoError(t, profile.EditField("First Name", "Janet"))
	require.NoError(t, profile.Save())
	msg, err := profile.SuccessText()
	require.NoError(t, err)
	assert.Equal(t, "Profile updated successfully", msg)

	require.NoError(t, profile.ToggleNotification(1))
	assert.ErrorIs(t, profile.ToggleNotification(2), pages.ErrElementNotFound)

	count, err := profile.ActivityCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFieldSelector(t *testing.T) {
	assert.Equal(t, `input[name="first-name"], input[placeholder*="First Name"]`, pages.FieldSelector("First Name"))
	assert.Equal(t, `input[name="email"], input[placeholder*="Email"]`, pages.FieldSelector("Email"))
}
