package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cognisys/arcana-cli/internal/arcana/config"
	"github.com/cognisys/arcana-cli/internal/arcana/gateway"
	"github.com/cognisys/arcana-cli/internal/arcana/history"
	"github.com/cognisys/arcana-cli/internal/arcana/session"
)

var (
	verbose    bool
	configPath string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "arcana",
		Short:         "Terminal client for the CogniSys backend",
		Long:          "arcana relays commands to the CogniSys backend and tracks asynchronous jobs. Run it without a subcommand for the interactive session.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runInteractive,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Echo outgoing requests and responses")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.arcana/config.json)")

	root.AddCommand(
		newConfigCmd(),
		newCodeCmd(),
		newShellCmd(),
		newAgentCmd(),
		newReasonCmd(),
		newFileOperationCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return root
}

func openConfigStore() (*config.Store, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.NewStore(path)
}

func resolveSettings() (config.Settings, error) {
	store, err := openConfigStore()
	if err != nil {
		return config.Settings{}, err
	}
	return config.Resolve(store)
}

func newGatewayClient() (*gateway.Client, error) {
	settings, err := resolveSettings()
	if err != nil {
		return nil, err
	}
	client := gateway.NewClient(settings)
	client.SetDebug(verbose)
	return client, nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings()
	if err != nil {
		return err
	}
	client := gateway.NewClient(settings)
	client.SetDebug(verbose)

	var recorder session.Recorder
	if path, err := history.DefaultPath(); err == nil {
		if store, err := history.Open(path); err == nil {
			defer store.Close()
			recorder = store
		} else if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "arcana: history disabled: %v\n", err)
		}
	}

	return session.Run(cmd.Context(), client, recorder, settings)
}
