// Package cli implements the factzy command-line interface.
//
// Commands turn encyclopedia topics, scanned notes, deck files or plain text into
// 800x400 flashcard images, serve the web form, and query the card history.
// All commands accept --config to pick a TOML file and --verbose (-v) for debug logs.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ByLCY/factzy/config"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// globals holds state resolved by the root command before any subcommand runs.
type globals struct {
	configPath string
	verbose    bool
	v          *viper.Viper
}

// bind makes a changed flag override the config key.
func (g *globals) bind(cmd *cobra.Command, flag, key string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		_ = g.v.BindPFlag(key, f)
	}
}

// Execute runs the factzy CLI. Failures are printed to stderr before being returned.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, "%v", err)
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "factzy",
		Short:         "Factzy turns text into bite-sized flashcards",
		Long:          `Factzy renders encyclopedia intros, scanned notes and deck files as 800x400 bullet-point flashcard images.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if g.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))

			g.v = viper.New()
			if g.configPath != "" {
				g.v.SetConfigFile(g.configPath)
			}
			return config.Load(g.v)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("factzy %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to config file (default "+config.DefaultConfigPath()+")")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newWebCmd(g))
	root.AddCommand(newImageCmd(g))
	root.AddCommand(newRenderCmd(g))
	root.AddCommand(newDeckCmd(g))
	root.AddCommand(newServeCmd(g))
	root.AddCommand(newHistoryCmd(g))
	root.AddCommand(newConfigCmd(g))
	return root
}

// openApp builds the services for cmd and returns them with a logger.
func openApp(cmd *cobra.Command, g *globals, n needs) (*app, error) {
	return buildApp(cmd.Context(), g.v, loggerFromContext(cmd.Context()), n)
}
