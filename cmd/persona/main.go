package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/persona/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "persona: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// rootOptions are the flags of the UI command. Flags override the config
// file and the environment.
type rootOptions struct {
	configPath string
	dev        bool
	agent      string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	root := &cobra.Command{
		Use:           "persona",
		Short:         "Run agent personas side by side in one terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	root.Flags().BoolVar(&opts.dev, "dev", false, "run agents in the current directory")
	root.Flags().StringVar(&opts.agent, "agent", "", "agent executable (overrides config)")
	root.Flags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(newPersonasCmd(&opts.configPath))
	root.AddCommand(newConfigCmd(&opts.configPath))
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig resolves the config path and loads it. An unreadable file is
// reported through warn and replaced by defaults.
func loadConfig(path string, warn func(error)) (*config.Config, string, error) {
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return nil, "", fmt.Errorf("resolve config path: %w", err)
		}
		path = p
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil && warn != nil {
		warn(err)
	}
	return cfg, path, nil
}
