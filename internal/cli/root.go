package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/eltociear/NeuroSandboxWebUI/internal/hub"
	"github.com/eltociear/NeuroSandboxWebUI/internal/registry"
)

// Config carries the persistent sandboxctl settings.
type Config struct {
	InputsDir string
	HubBase   string
	GitBin    string
	LogLvl    string
}

// app bundles the handles every subcommand needs.
type app struct {
	reg *registry.Registry
	hub *hub.Client
	log zerolog.Logger
	out io.Writer
}

func newApp(cfg *Config) (*app, error) {
	reg, err := registry.New(cfg.InputsDir)
	if err != nil {
		return nil, err
	}
	if err := reg.EnsureLayout(); err != nil {
		return nil, err
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLvl)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
	return &app{
		reg: reg,
		hub: hub.New(reg, cfg.HubBase, cfg.GitBin, log),
		log: log,
		out: os.Stdout,
	}, nil
}

// buildRootCmd constructs the Cobra command tree wired to cfg.
func buildRootCmd(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "sandboxctl",
		Short:         "Operator utilities for a NeuroSandboxWebUI install",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	root.PersistentFlags().String("inputs-dir", cfg.InputsDir, "Root directory for model weights (defaults NEUROSANDBOX_INPUTS or ./inputs)")
	root.PersistentFlags().String("hub-base", cfg.HubBase, "Model hub base URL")
	root.PersistentFlags().String("git-bin", cfg.GitBin, "git binary used for model clones")
	root.PersistentFlags().String("log-level", cfg.LogLvl, "Log level: debug|info|warn|error")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if f := cmd.InheritedFlags().Lookup("inputs-dir"); f != nil && f.Value.String() != "" {
			cfg.InputsDir = f.Value.String()
		}
		if f := cmd.InheritedFlags().Lookup("hub-base"); f != nil && f.Value.String() != "" {
			cfg.HubBase = f.Value.String()
		}
		if f := cmd.InheritedFlags().Lookup("git-bin"); f != nil && f.Value.String() != "" {
			cfg.GitBin = f.Value.String()
		}
		if f := cmd.InheritedFlags().Lookup("log-level"); f != nil && f.Value.String() != "" {
			cfg.LogLvl = f.Value.String()
		}
	}

	root.AddCommand(buildFetchCmd(cfg))
	root.AddCommand(buildModelsCmd(cfg))
	root.AddCommand(buildDoctorCmd(cfg))

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	root.AddCommand(completionCmd)

	return root
}

// Execute runs sandboxctl with the given arguments and returns the process
// exit code.
func Execute(args []string) int {
	cfg := &Config{
		InputsDir: envStr("NEUROSANDBOX_INPUTS", "inputs"),
		HubBase:   "",
		GitBin:    "git",
		LogLvl:    envStr("NEUROSANDBOX_LOG_LEVEL", "info"),
	}
	root := buildRootCmd(cfg)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sandboxctl: %v\n", err)
		return 1
	}
	return 0
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
