package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"budgetx/internal/client"
)

type app struct {
	rootCmd *cobra.Command
	out     io.Writer
	errOut  io.Writer

	serverFlag string
	configPath string
	api        *client.Client
}

func newApp(out, errOut io.Writer) *app {
	a := &app{out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Command-line client for the budgetx server",
		Long:          "Manage budget entries, inspect statistics, parse receipts and ask what-if questions against a budgetx server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.connect()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.PersistentFlags().StringVarP(&a.serverFlag, "server", "s", "", "budgetx server URL (overrides "+envServer+" and the config file)")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath(), "Path to the TOML config file")

	rootCmd.AddCommand(
		a.entriesCmd(),
		a.historyCmd(),
		a.statsCmd(),
		a.summaryCmd(),
		a.receiptCmd(),
		a.askCmd(),
		a.resetCmd(),
	)

	a.rootCmd = rootCmd
	return a
}

func (a *app) connect() error {
	cfg, err := loadFileConfig(a.configPath)
	if err != nil {
		return err
	}
	api, err := client.New(resolveServer(a.serverFlag, cfg), nil)
	if err != nil {
		return err
	}
	a.api = api
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// ExecuteContext runs the command line in os.Args.
func (a *app) ExecuteContext(ctx context.Context) error {
	return a.rootCmd.ExecuteContext(ctx)
}
