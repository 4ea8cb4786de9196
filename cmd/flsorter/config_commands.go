package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flsorter/internal/config"
	"flsorter/internal/logging"
	"flsorter/internal/pipeline"
	"flsorter/internal/preflight"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand(ctx))

	return configCmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration and empty group folders",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ResolveDir(ctx.configDir())
			if err != nil {
				return fmt.Errorf("resolve config dir: %w", err)
			}
			target := config.SamplePath(dir)

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			cfg := config.Default()
			cfg.Dir = dir
			cfg.Journal.Enabled = false
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintf(out, "Add group files under %s and %s, then run `flsorter sort --dry-run`.\n",
				cfg.GroupsDir("effect"), cfg.GroupsDir("generator"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration, group files and directories",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configDir())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}

			results := preflight.RunAll(cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				switch {
				case !r.Passed && r.Optional:
					status = "warn"
				case !r.Passed:
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			writeTable(out, []string{"Check", "Status", "Detail"}, rows, nil)

			cat, err := pipeline.New(cfg, logging.NewNop()).LoadCatalog()
			if err != nil {
				return fmt.Errorf("group files: %w", err)
			}
			fmt.Fprintf(out, "Loaded %d group(s)\n", cat.Len())
			if err := preflight.Require(results); err != nil {
				return err
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
