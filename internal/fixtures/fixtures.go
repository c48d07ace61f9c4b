// File: internal/fixtures/fixtures.go
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	json "github.com/json-iterator/go"
	"github.com/samber/lo"

	"github.com/xkilldash9x/lancet/internal/config"
)

// DefaultDir is where scenario data files live.
const DefaultDir = "testdata"

const dateLayout = "2006-01-02"

// ErrConditionTimeout is returned by WaitFor when the condition never held.
var ErrConditionTimeout = errors.New("condition not met before timeout")

// LoadJSON decodes <dir>/<name> into out. ".json" is appended when name has
// no extension.
func LoadJSON(dir, name string, out interface{}) error {
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return nil
}

// User is a generic account for forms that are not tied to a site login.
type User struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// TestUser returns the default account, honoring TEST_USER_EMAIL and
// TEST_USER_PASSWORD.
func TestUser(lookup config.LookupFunc) User {
	email := "test@example.com"
	if v, ok := lookup("TEST_USER_EMAIL"); ok && v != "" {
		email = v
	}
	password := "password123"
	if v, ok := lookup("TEST_USER_PASSWORD"); ok && v != "" {
		password = v
	}
	return User{Username: email, Password: password, Email: email, FirstName: "Test", LastName: "User"}
}

// Generator produces random and date-relative test values.
type Generator struct {
	now func() time.Time
	rng *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithSeed makes numeric output reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// NewGenerator returns a generator seeded from the runtime.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: time.Now, rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Email returns test.user.<unix millis>.<0-999>@example.com.
func (g *Generator) Email() string {
	return fmt.Sprintf("test.user.%d.%d@example.com", g.now().UnixMilli(), g.rng.IntN(1000))
}

// String returns n random alphanumerics. n <= 0 means 10.
func (g *Generator) String(n int) string {
	if n <= 0 {
		n = 10
	}
	return lo.RandomString(n, lo.AlphanumericCharset)
}

// Number returns an integer in [min, max]. Reversed bounds are swapped.
func (g *Generator) Number(min, max int) int {
	if min > max {
		min, max = max, min
	}
	return min + g.rng.IntN(max-min+1)
}

// Today is the current UTC date as YYYY-MM-DD.
func (g *Generator) Today() string { return g.DaysFromNow(0) }

// DaysFromNow is the UTC date n days away as YYYY-MM-DD.
func (g *Generator) DaysFromNow(n int) string {
	return g.now().UTC().AddDate(0, 0, n).Format(dateLayout)
}

var defaultGenerator = NewGenerator()

// RandomEmail returns a unique-looking address from the default generator.
func RandomEmail() string { return defaultGenerator.Email() }

// RandomString returns n random alphanumerics.
func RandomString(n int) string { return defaultGenerator.String(n) }

// RandomNumber returns an integer in [min, max].
func RandomNumber(min, max int) int { return defaultGenerator.Number(min, max) }

// Today is the current UTC date as YYYY-MM-DD.
func Today() string { return defaultGenerator.Today() }

// DaysFromNow is the UTC date n days away as YYYY-MM-DD.
func DaysFromNow(n int) string { return defaultGenerator.DaysFromNow(n) }

// WaitFor polls cond every interval until it reports true, the timeout
// passes, or ctx ends.
func WaitFor(ctx context.Context, timeout, interval time.Duration, cond func() (bool, error)) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w after %s", ErrConditionTimeout, timeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
