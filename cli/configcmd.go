package cli

import (
	"github.com/spf13/cobra"

	"github.com/ByLCY/factzy/config"
)

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the factzy config file",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigCheckCmd(g))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Wrote config")
			printFile(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "destination (default "+config.DefaultConfigPath()+")")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigCheckCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CheckValidity(g.v); err != nil {
				return err
			}
			cfg := config.FromViper(g.v)
			out := cmd.OutOrStdout()
			file := g.v.ConfigFileUsed()
			if file == "" {
				file = "(defaults only)"
			}
			printSuccess(out, "Config is valid")
			printKeyValue(out, "file", file)
			printKeyValue(out, "output", cfg.OutputDir)
			printKeyValue(out, "data", cfg.DataDir)
			printKeyValue(out, "font", cfg.FontSrc)
			printKeyValue(out, "server", cfg.Server.Addr)
			return nil
		},
	}
}
