// File: internal/steps/profile_steps.go
package steps

import (
	"context"

	"github.com/cucumber/godog"

	"github.com/xkilldash9x/lancet/internal/fixtures"
	"github.com/xkilldash9x/lancet/internal/pages"
)

const newTestPassword = "NewPassword123!"

func registerProfileSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the user navigates to the profile page$`, navigateToProfile)
	sc.Step(`^the user profile information should be displayed$`, profileInfoDisplayed)
	sc.Step(`^the profile picture should be visible$`, profilePictureVisible)
	sc.Step(`^the user name should match the logged-in user$`, profileNameShown)
	sc.Step(`^(?:the user )?clicks the edit profile button$`, editProfile)
	sc.Step(`^(?:the user )?updates the following fields:$`, updateFields)
	sc.Step(`^(?:the user )?saves the changes$`, saveProfile)
	sc.Step(`^a success message should be displayed$`, profileSuccess)
	sc.Step(`^the profile should be updated with the new information$`, profileUpdated)
	sc.Step(`^(?:the user )?changes the password$`, changePassword)
	sc.Step(`^the password should be changed$`, profileSuccess)
	sc.Step(`^(?:the user )?clicks on activity log$`, openActivityLog)
	sc.Step(`^a list of recent activities should be displayed$`, activitiesDisplayed)
	sc.Step(`^(?:the user )?toggles email notifications$`, toggleEmailNotifications)
}

func profilePage(ctx context.Context) (*World, *pages.ProfilePage, error) {
	w, err := worldFor(ctx)
	if err != nil {
		return nil, nil, err
	}
	p, err := w.Profile()
	return w, p, err
}

func navigateToProfile(ctx context.Context) error {
	_, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	if err := p.Navigate(); err != nil {
		return err
	}
	return p.WaitForLoaded()
}

func profileInfoDisplayed(ctx context.Context) error {
	_, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	return expectVisible(p.IsInfoVisible(), "profile information")
}

func profilePictureVisible(ctx context.Context) error {
	_, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	return expectVisible(p.IsPictureVisible(), "profile picture")
}

func profileNameShown(ctx context.Context) error {
	_, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	name, err := p.Name()
	if err != nil {
		return err
	}
	return expect(name != "", "profile name", "a non-empty name", name)
}

func editProfile(ctx context.Context) error {
	_, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	if err := p.Edit(); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

func updateFields(ctx context.Context, table *godog.Table) error {
	w, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	for _, row := range tableRows(table) {
		if err := p.EditField(row["Field"], w.Expand(row["Value"])); err != nil {
			return err
		}
	}
	return nil
}

func saveProfile(ctx context.Context) error {
	_, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	if err := p.Save(); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

func profileSuccess(ctx context.Context) error {
	_, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	return expectVisible(p.IsSuccessVisible(), "success message")
}

func profileUpdated(ctx context.Context) error {
	_, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	if err := p.Reload(); err != nil {
		return err
	}
	return expectVisible(p.IsInfoVisible(), "profile information after reload")
}

func changePassword(ctx context.Context) error {
	w, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	current := fixtures.TestUser(w.lookup).Password
	if err := p.ChangePassword(current, newTestPassword); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

func openActivityLog(ctx context.Context) error {
	_, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	if err := p.OpenActivityLog(); err != nil {
		return err
	}
	return p.WaitForPageLoad()
}

func activitiesDisplayed(ctx context.Context) error {
	_, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	n, err := p.ActivityCount()
	if err != nil {
		return err
	}
	return expectGreater(n, 0, "activity entries")
}

func toggleEmailNotifications(ctx context.Context) error {
	_, p, err := profilePage(ctx)
	if err != nil {
		return err
	}
	return p.ToggleNotification(0)
}
