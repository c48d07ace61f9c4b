// File: internal/steps/login_steps.go
package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"

	"github.com/xkilldash9x/lancet/internal/pages"
)

// Credentials used by the negative login scenarios.
const (
	invalidUsername = "invalid@example.com"
	invalidPassword = "wrongpassword"
)

func registerLoginSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the user navigates to the login page$`, navigateToLogin)
	sc.Step(`^the user is logged in$`, userIsLoggedIn)
	sc.Step(`^the user enters valid credentials$`, enterValidCredentials)
	sc.Step(`^the user enters invalid credentials$`, enterInvalidCredentials)
	sc.Step(`^the user enters username "([^"]*)"$`, enterUsername)
	sc.Step(`^the user enters password "([^"]*)"$`, enterPassword)
	sc.Step(`^(?:the user )?clicks the login button$`, clickLogin)
	sc.Step(`^the user should be logged in successfully$`, loggedInSuccessfully)
	sc.Step(`^the dashboard should be displayed$`, dashboardDisplayed)
	sc.Step(`^an? "([^"]*)" message should be displayed$`, messageDisplayed)
	sc.Step(`^the user should remain on the login page$`, remainOnLogin)
	sc.Step(`^the user clicks the logout button$`, clickLogout)
	sc.Step(`^the user should be logged out$`, loggedOut)
	sc.Step(`^the login page should be displayed$`, loginPageDisplayed)
	sc.Step(`^the user checks the "([^"]*)" checkbox$`, checkCheckbox)
}

func loginPage(ctx context.Context) (*World, *pages.LoginPage, error) {
	w, err := worldFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := w.Login()
	return w, p, err
}

func navigateToLogin(ctx context.Context) error {
	_, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	return p.Navigate()
}

func userIsLoggedIn(ctx context.Context) error {
	w, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	creds := w.Site.Credentials
	if err := p.Login(creds.Username, creds.Password); err != nil {
		return fmt.Errorf("log in as %q: %w", creds.Username, err)
	}
	d, err := w.Dashboard()
	if err != nil {
		return err
	}
	return d.WaitForLoaded()
}

func enterValidCredentials(ctx context.Context) error {
	w, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	if err := p.EnterUsername(w.Site.Credentials.Username); err != nil {
		return err
	}
	return p.EnterPassword(w.Site.Credentials.Password)
}

func enterInvalidCredentials(ctx context.Context) error {
	_, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	if err := p.EnterUsername(invalidUsername); err != nil {
		return err
	}
	return p.EnterPassword(invalidPassword)
}

func enterUsername(ctx context.Context, username string) error {
	_, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	return p.EnterUsername(username)
}

func enterPassword(ctx context.Context, password string) error {
	_, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	return p.EnterPassword(password)
}

func clickLogin(ctx context.Context) error {
	_, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	return p.Submit()
}

func loggedInSuccessfully(ctx context.Context) error {
	w, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	if p.IsErrorVisible() {
		text, _ := p.ErrorText()
		return &AssertionError{What: "login result", Expected: "no login error", Actual: text}
	}
	base, err := w.Base()
	if err != nil {
		return err
	}
	return expect(!samePath(base.CurrentURL(), p.URL()), "page after login", "to leave the login page", base.CurrentURL())
}

func dashboardDisplayed(ctx context.Context) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	d, err := w.Dashboard()
	if err != nil {
		return err
	}
	if err := d.WaitForLoaded(); err != nil {
		return err
	}
	return expectVisible(d.IsLoaded(), "dashboard")
}

func messageDisplayed(ctx context.Context, kind string) error {
	w, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	if containsFold(kind, "error") {
		return expectVisible(p.IsErrorVisible(), kind+" message")
	}
	if p.IsSuccessVisible() {
		return nil
	}
	profile, err := w.Profile()
	if err != nil {
		return err
	}
	return expectVisible(profile.IsSuccessVisible(), kind+" message")
}

func remainOnLogin(ctx context.Context) error {
	w, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	base, err := w.Base()
	if err != nil {
		return err
	}
	current := base.CurrentURL()
	return expect(samePath(current, p.URL()), "current page", p.URL(), current)
}

func clickLogout(ctx context.Context) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	d, err := w.Dashboard()
	if err != nil {
		return err
	}
	return d.Logout()
}

func loggedOut(ctx context.Context) error {
	_, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	if err := p.WaitForPageLoad(); err != nil {
		return err
	}
	return p.WaitForLoaded()
}

func loginPageDisplayed(ctx context.Context) error {
	_, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	return expectVisible(p.IsDisplayed(), "login form")
}

func checkCheckbox(ctx context.Context, label string) error {
	w, p, err := loginPage(ctx)
	if err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(label), "remember me") {
		return p.CheckRememberMe()
	}
	base, err := w.Base()
	if err != nil {
		return err
	}
	return base.Check(fmt.Sprintf(`input[type="checkbox"][aria-label*="%s"]`, label))
}
