// File: cmd/config.go
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/lancet/internal/config"
	"github.com/xkilldash9x/lancet/internal/observability"
)

// resolvedView is what `config show` prints. Credentials are masked.
type resolvedView struct {
	Environment config.EnvironmentConfig `yaml:"environment"`
	Site        config.SiteConfig        `yaml:"site"`
	Settings    *config.Config           `yaml:"settings"`
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspects the resolved configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Prints the environment and site a run would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			resolver := config.NewResolver(observability.GetLogger())
			env, err := resolver.ResolveEnvironment(cfg.Run.Environment)
			if err != nil {
				return fmt.Errorf("resolve environment: %w", err)
			}
			site, err := resolver.ResolveSite(cfg.Run.Site)
			if err != nil {
				return fmt.Errorf("resolve site: %w", err)
			}
			site.Credentials = site.Credentials.Masked()
			return writeYAML(cmd.OutOrStdout(), resolvedView{Environment: env, Site: site, Settings: cfg})
		},
	}
	showCmd.Flags().String("env", "", "environment name (dev, staging, prod)")
	showCmd.Flags().String("site", "", "site name (site1, site2)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lists the registered environments and sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := config.NewResolver(observability.GetLogger())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "environments: %s\n", strings.Join(resolver.EnvironmentNames(), ", "))
			fmt.Fprintf(out, "sites: %s\n", strings.Join(resolver.SiteNames(), ", "))
			return nil
		},
	}

	configCmd.AddCommand(showCmd, listCmd)
	return configCmd
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}
