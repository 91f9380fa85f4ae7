// Command onion runs requests through a configured middleware pipeline.
//
//	onion layers --config onion.yml
//	onion run --param retry.max_attempts=5 hello world
//	onion serve --config onion.yml
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/onion/version"
)

const serviceName = "onion"

type rootFlags struct {
	configFile   string
	envFile      string
	otlpEndpoint string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// NewRootCommand builds the onion command tree.
func NewRootCommand() *cobra.Command {
	flags := new(rootFlags)

	cmd := &cobra.Command{
		Use:          serviceName,
		Short:        "Run actions through an onion middleware pipeline",
		Version:      version.Get().String(),
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "path to a .env file")
	cmd.PersistentFlags().StringVar(&flags.otlpEndpoint, "otlp-endpoint", "", "OTLP HTTP endpoint host:port; enables tracing and metrics export")

	cmd.AddCommand(
		newLayersCommand(flags),
		newRunCommand(flags),
		newServeCommand(flags),
	)
	return cmd
}

// withApp builds the app for one command invocation and closes it afterwards.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(*app) error) (err error) {
	a, err := newApp(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(context.WithoutCancel(cmd.Context())); err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
