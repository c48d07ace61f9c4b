// File: internal/steps/api_steps.go
package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
	json "github.com/json-iterator/go"
	"github.com/samber/lo"

	"github.com/xkilldash9x/lancet/internal/fixtures"
)

const testTokenTTL = time.Hour

func registerAPISteps(sc *godog.ScenarioContext) {
	sc.Step(`^the API client is authenticated as the test user$`, authenticateAPI)
	sc.Step(`^the user sends a (GET|DELETE|HEAD) request to "([^"]*)"$`, sendRequest)
	sc.Step(`^the user sends a (POST|PUT|PATCH) request to "([^"]*)" with body:$`, sendRequestWithBody)
	sc.Step(`^the user sends a (POST|PUT|PATCH) request to "([^"]*)" with the fixture "([^"]*)"$`, sendRequestWithFixture)
	sc.Step(`^the response status should be (\d+)$`, responseStatus)
	sc.Step(`^the response should contain the keys "([^"]*)"$`, responseKeys)
	sc.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, responseField)
	sc.Step(`^the endpoint "([^"]*)" is mocked with status (\d+) and body:$`, mockEndpoint)
	sc.Step(`^the endpoint "([^"]*)" is mocked to fail$`, mockEndpointFailure)
	sc.Step(`^the endpoint "([^"]*)" is no longer mocked$`, unmockEndpoint)
	sc.Step(`^network requests are being tracked$`, startTracking)
	sc.Step(`^at least (\d+) requests? should have been made$`, requestsMade)
	sc.Step(`^a (GET|POST|PUT|PATCH|DELETE|HEAD) request to "([^"]*)" should have been made$`, requestMadeTo)
}

func authenticateAPI(ctx context.Context) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	client, err := w.API()
	if err != nil {
		return err
	}
	token, err := w.Tokens().Issue(fixtures.TestUser(w.lookup), testTokenTTL)
	if err != nil {
		return err
	}
	w.setAPI(client.WithAuth(token))
	return nil
}

func sendRequest(ctx context.Context, method, path string) error {
	return send(ctx, method, path, nil)
}

func sendRequestWithBody(ctx context.Context, method, path string, doc *godog.DocString) error {
	var body interface{}
	if err := json.Unmarshal([]byte(doc.Content), &body); err != nil {
		return fmt.Errorf("request body is not valid JSON: %w", err)
	}
	return send(ctx, method, path, body)
}

func sendRequestWithFixture(ctx context.Context, method, path, name string) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	var body interface{}
	if err := fixtures.LoadJSON(w.fixturesDir, name, &body); err != nil {
		return err
	}
	return send(ctx, method, path, body)
}

func send(ctx context.Context, method, path string, body interface{}) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	client, err := w.API()
	if err != nil {
		return err
	}
	resp, err := client.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	w.setResponse(resp)
	return nil
}

func responseStatus(ctx context.Context, want int) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	resp, err := w.LastResponse()
	if err != nil {
		return err
	}
	return expect(resp.Status == want, "response status", want, resp.Status)
}

func responseKeys(ctx context.Context, list string) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	resp, err := w.LastResponse()
	if err != nil {
		return err
	}
	keys := lo.FilterMap(strings.Split(list, ","), func(k string, _ int) (string, bool) {
		k = strings.TrimSpace(k)
		return k, k != ""
	})
	return resp.ValidateKeys(keys...)
}

func responseField(ctx context.Context, path, want string) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	resp, err := w.LastResponse()
	if err != nil {
		return err
	}
	got, err := resp.Extract(path)
	if err != nil {
		return err
	}
	actual := fmt.Sprint(got)
	return expect(actual == want, "response field "+path, want, actual)
}

func mockEndpoint(ctx context.Context, pattern string, status int, doc *godog.DocString) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	var data interface{}
	if err := json.Unmarshal([]byte(doc.Content), &data); err != nil {
		return fmt.Errorf("mock body is not valid JSON: %w", err)
	}
	mocks, err := w.Mocks()
	if err != nil {
		return err
	}
	return mocks.MockJSON(pattern, data, status)
}

func mockEndpointFailure(ctx context.Context, pattern string) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	mocks, err := w.Mocks()
	if err != nil {
		return err
	}
	return mocks.MockError(pattern, "")
}

func unmockEndpoint(ctx context.Context, pattern string) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	mocks, err := w.Mocks()
	if err != nil {
		return err
	}
	return mocks.Unmock(pattern)
}

func startTracking(ctx context.Context) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	tracker, err := w.Tracker()
	if err != nil {
		return err
	}
	tracker.StartTracking()
	return nil
}

func requestsMade(ctx context.Context, atLeast int) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	tracker, err := w.Tracker()
	if err != nil {
		return err
	}
	m := tracker.Metrics()
	return expect(m.Total >= atLeast, "tracked requests", fmt.Sprintf("at least %d", atLeast), m.Total)
}

func requestMadeTo(ctx context.Context, method, fragment string) error {
	w, err := worldFor(ctx)
	if err != nil {
		return err
	}
	tracker, err := w.Tracker()
	if err != nil {
		return err
	}
	n := len(tracker.Find(method, fragment))
	return expect(n > 0, method+" requests to "+fragment, "at least 1", n)
}
