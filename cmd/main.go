package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jademcosta/syncbatcher/pkg/app"
	"github.com/jademcosta/syncbatcher/pkg/config"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const version = "0.1.0"

func main() {
	rootCmd := newRootCommand()

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "syncbatcher --config <FILE_PATH>",
		Short:        "Accumulates object keys and batches them into transfer jobs",
		Version:      version,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return start(configPath)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "[required] the path for the config file")
	mustMarkRequired(rootCmd, "config")

	rootCmd.AddCommand(newInvokeCommand(os.Stdout))
	return rootCmd
}

// newInvokeCommand runs a single coordinator invocation with the event read
// from a file (or stdin when the file is "-") and prints the outcome.
func newInvokeCommand(out io.Writer) *cobra.Command {
	var configPath string
	var eventPath string

	invokeCmd := &cobra.Command{
		Use:          "invoke --config <FILE_PATH> --event <FILE_PATH>",
		Short:        "Applies one event to the manifest and exits",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			payload, err := readEvent(cmd.InOrStdin(), eventPath)
			if err != nil {
				return err
			}

			outcome, err := app.InvokeOnce(cmd.Context(), logger.New(conf), conf, payload)
			if err != nil {
				return fmt.Errorf("invocation failed: %w", err)
			}

			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(outcome)
		},
	}
	invokeCmd.Flags().StringVarP(&configPath, "config", "c", "", "[required] the path for the config file")
	invokeCmd.Flags().StringVarP(&eventPath, "event", "e", "-", "the path for the event JSON, - reads stdin")
	mustMarkRequired(invokeCmd, "config")

	return invokeCmd
}

func start(configPath string) error {
	conf, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	l := logger.New(conf)

	if !conf.DisableMaxProcs {
		undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			l.Info(fmt.Sprintf(format, args...))
		}))
		defer undo()
		if err != nil {
			l.Warn("failed to set GOMAXPROCS", "error", err)
		}
	}

	return app.New(conf, l).Start()
}

func loadConfig(configPath string) (*config.Config, error) {
	confData, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	c, err := config.New(confData)
	if err != nil {
		return nil, fmt.Errorf("error initializing/parsing config: %w", err)
	}

	c.Version = version
	return c, nil
}

func readEvent(stdin io.Reader, eventPath string) ([]byte, error) {
	if eventPath == "-" {
		return io.ReadAll(stdin)
	}

	payload, err := os.ReadFile(eventPath)
	if err != nil {
		return nil, fmt.Errorf("error reading event file: %w", err)
	}
	return payload, nil
}

func mustMarkRequired(cmd *cobra.Command, flag string) {
	err := cmd.MarkFlagRequired(flag)
	if err != nil {
		panic(fmt.Sprintf("err on flags setup: %v", err))
	}
}
