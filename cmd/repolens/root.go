package main

import (
	"os"

	"github.com/hmoritama/repolens/cmd/repolens/commands"
	"github.com/hmoritama/repolens/cmd/repolens/opts"
	"github.com/hmoritama/repolens/pkg/config"
	"github.com/hmoritama/repolens/pkg/log"
	"github.com/hmoritama/repolens/pkg/vault"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	// Provider registrations.
	_ "github.com/hmoritama/repolens/pkg/provider/claude"
	_ "github.com/hmoritama/repolens/pkg/provider/gemini"
)

var (
	// Flags
	configFile   string
	debug        bool
	providerName string
)

// NewRootCmd builds the repolens command tree.
func NewRootCmd() *cobra.Command {
	o := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "repolens [repository-url]",
		Short: "Analyze a GitHub repository with an AI provider",
		Long: `repolens turns a GitHub repository URL into a structured analysis
document by driving an AI provider through five incremental stages.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			return initRootOpts(cmd, o)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return commands.RunAnalyze(cmd.Context(), o, args[0])
		},
	}

	addRootFlags(cmd, o)

	cmd.AddCommand(
		commands.NewAnalyzeCmd(o),
		commands.NewSecretCmd(o),
		commands.NewProvidersCmd(o),
		commands.NewCleanCmd(o),
		commands.NewVersionCmd(),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command.
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigFile, "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVarP(&providerName, "provider", "p", "", "provider to use (claude, gemini, openai, auto)")
}

// initRootOpts loads config and wires the shared dependencies.
func initRootOpts(cmd *cobra.Command, o *opts.RootOpts) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	o.Config = cfg
	o.ProviderOverride = providerName

	vaultDir, err := cfg.ResolveVaultDir()
	if err != nil {
		return errors.Errorf("resolving vault directory: %w", err)
	}
	v, err := vault.New(vaultDir)
	if err != nil {
		return errors.Errorf("opening credential vault: %w", err)
	}
	o.Vault = v

	o.UserLogger = log.NewUserLogger(cmd.Context())
	return nil
}

// setupLogging configures zerolog based on flags.
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
}
