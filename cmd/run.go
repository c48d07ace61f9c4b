// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lancet/internal/config"
	"github.com/xkilldash9x/lancet/internal/observability"
	"github.com/xkilldash9x/lancet/internal/runner"
)

// errRunFailed signals scenario failures. The runner has already reported
// them, so Execute does not log it again.
var errRunFailed = errors.New("one or more scenarios failed")

// newRunner is swapped in tests to inject a fake browser launcher.
var newRunner = func(cfg *config.Config, resolver *config.Resolver, opts runner.Options, logger *zap.Logger) (*runner.Runner, error) {
	return runner.New(cfg, resolver, opts, logger)
}

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Runs feature files; the embedded suite when no paths are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			opts := runner.OptionsFromConfig(cfg)
			if len(args) > 0 {
				opts.Paths = args
			}
			if cmd.Flags().Changed("no-color") || os.Getenv("NO_COLOR") != "" {
				opts.Output = cmd.OutOrStdout()
			}

			resolver := config.NewResolver(logger)
			r, err := newRunner(cfg, resolver, opts, logger)
			if err != nil {
				return fmt.Errorf("failed to prepare run: %w", err)
			}

			code, summary, err := r.Run(ctx)
			if summary != nil && err != nil && errors.Is(err, context.Canceled) {
				fmt.Fprintln(cmd.OutOrStdout(), summary.String())
			}
			if err != nil {
				return fmt.Errorf("run aborted: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary.String())
			if code != 0 {
				return errRunFailed
			}
			return nil
		},
	}

	runCmd.Flags().StringP("tags", "t", "", "tag expression selecting scenarios, e.g. \"@smoke and not @wip\"")
	runCmd.Flags().IntP("parallel", "p", 1, "number of browser workers")
	runCmd.Flags().Bool("fail-fast", false, "stop at the first failing scenario")
	runCmd.Flags().StringP("format", "f", "pretty", "godog formatter (pretty, progress, cucumber, junit, events); name:path writes to a file")
	runCmd.Flags().Bool("strict", true, "fail on pending or undefined steps")
	runCmd.Flags().Int64("random", 0, "shuffle scenarios with this seed; -1 picks one")
	runCmd.Flags().String("env", "", "environment name (dev, staging, prod)")
	runCmd.Flags().String("site", "", "site name (site1, site2)")
	runCmd.Flags().String("browser", "", "chromium, firefox, webkit or safari")
	runCmd.Flags().Bool("headed", false, "show the browser window")
	runCmd.Flags().Bool("no-color", false, "disable colored formatter output")
	return runCmd
}
