package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nixlim/keyprint/internal/config"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	var (
		force   bool
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Writes the default configuration to --config (or ~/.config/keyprint/config.toml).
An existing file is kept unless --force is given, in which case it is backed
up to <file>.bak first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if path == "" {
				return fmt.Errorf("cannot determine config path; pass --config")
			}

			cfg := config.DefaultConfig()
			if baseURL != "" {
				cfg.Server.BaseURL = baseURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			result, err := config.Write(path, cfg, force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch result {
			case config.WriteCreated:
				fmt.Fprintf(out, "Wrote %s\n", path)
			case config.WriteReplaced:
				fmt.Fprintf(out, "Replaced %s (previous version saved to %s.bak)\n", path, path)
			case config.WriteAlreadyExists:
				fmt.Fprintf(out, "%s already exists. Use --force to overwrite.\n", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.Flags().StringVar(&baseURL, "server", "", "service base URL to write instead of the default")
	return cmd
}
