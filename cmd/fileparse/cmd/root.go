package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/fileparse/internal/config"
	"github.com/JonMunkholm/fileparse/internal/core"
	"github.com/JonMunkholm/fileparse/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	logLevel  string
	logFormat string
	pretty    bool
}

// Execute runs the root command with os.Args, printing failures to stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		printError(root.ErrOrStderr(), err)
		return err
	}
	return nil
}

// NewRootCommand builds the fileparse command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "fileparse",
		Short: "Parse CSV files and summarise logs",
		Long: `fileparse reads CSV and log files and prints the result as JSON.

Commands:
  csv  - parse a CSV file into rows keyed by header
  log  - count lines, errors and distinct warnings in log files

Limits and the default delimiter come from the same environment
variables as the server (LIMIT_*, PARSE_DELIMITER); a .env file in the
working directory is loaded if present.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat))
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "indent JSON output")

	root.AddCommand(newCSVCommand(opts))
	root.AddCommand(newLogCommand(opts))

	return root
}

// newService loads configuration from the environment and builds a service.
func newService() (*core.Service, error) {
	// A missing .env is normal for the CLI; a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return core.NewService(cfg)
}

func (o *options) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if o.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func printError(w io.Writer, err error) {
	if core.IsUserFacing(err) {
		fmt.Fprintf(w, "Error: %s\n  %v\n", core.FormatUserError(err), err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
