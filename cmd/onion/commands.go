package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/onion/errors"
	"github.com/kbukum/onion/pipeline"
)

func newLayersCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "Print the configured layers, innermost first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(a *app) error {
				for i, id := range a.pipeline.Layers() {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, id)
				}
				return nil
			})
		},
	}
}

type runFlags struct {
	params []string
	fail   int
}

func newRunCommand(flags *rootFlags) *cobra.Command {
	rf := new(runFlags)

	cmd := &cobra.Command{
		Use:   "run [args...]",
		Short: "Execute the echo action through the configured layers",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(rf.params)
			if err != nil {
				return err
			}
			return withApp(cmd, flags, func(a *app) error {
				in := make([]any, len(args))
				for i, arg := range args {
					in[i] = arg
				}
				out, err := a.pipeline.Execute(cmd.Context(), newEcho(rf.fail), in, params)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&rf.params, "param", "p", nil, "call-time layer parameter as layer.key=value (repeatable)")
	cmd.Flags().IntVar(&rf.fail, "fail", 0, "fail the first N attempts with SERVICE_UNAVAILABLE")
	return cmd
}

// newEcho returns an action that joins its arguments, failing the first
// failures calls.
func newEcho(failures int) func(context.Context, ...string) (string, error) {
	calls := 0
	return func(_ context.Context, words ...string) (string, error) {
		calls++
		if calls <= failures {
			return "", errors.ServiceUnavailable("echo")
		}
		return strings.Join(words, " "), nil
	}
}

// parseParams parses layer.key=value pairs into call-time parameters.
func parseParams(pairs []string) (map[string]pipeline.Parameters, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]pipeline.Parameters)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		layer, name, dotted := strings.Cut(key, ".")
		if !ok || !dotted || layer == "" || name == "" {
			return nil, errors.InvalidInput("param", fmt.Sprintf("%q is not layer.key=value", pair))
		}
		if params[layer] == nil {
			params[layer] = pipeline.Parameters{}
		}
		params[layer][name] = value
	}
	return params, nil
}
