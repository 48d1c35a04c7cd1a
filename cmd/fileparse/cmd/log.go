package cmd

import (
	"errors"
	"slices"

	"github.com/JonMunkholm/fileparse/internal/core"
	"github.com/spf13/cobra"
)

// stdinArg names standard input on the command line.
const stdinArg = "-"

func newLogCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "log <file|->...",
		Short: "Summarise log files",
		Long: `Summarise one or more log files.

For each file, prints the number of non-blank lines, the number of lines
containing "error" in any case, and the distinct messages that follow
"WARNING:". Several files are read in parallel (LIMIT_PARALLELISM) and
printed as a JSON array in argument order. Use - once, in any position, to
read from stdin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				result, err := summariseArg(cmd, svc, args[0])
				if err != nil {
					return err
				}
				return opts.writeJSON(cmd.OutOrStdout(), result)
			}

			results, err := summariseArgs(cmd, svc, args)
			if err != nil {
				return err
			}
			return opts.writeJSON(cmd.OutOrStdout(), results)
		},
	}
}

func summariseArg(cmd *cobra.Command, svc *core.Service, arg string) (*core.SummaryResult, error) {
	if arg == stdinArg {
		return svc.SummariseLog(cmd.Context(), "stdin", cmd.InOrStdin())
	}
	return svc.SummariseFile(cmd.Context(), arg)
}

// summariseArgs summarises files in parallel and stdin, if named, in its own
// slot. Results keep argument order.
func summariseArgs(cmd *cobra.Command, svc *core.Service, args []string) ([]*core.SummaryResult, error) {
	stdinAt := slices.Index(args, stdinArg)
	if stdinAt < 0 {
		return svc.SummariseFiles(cmd.Context(), args)
	}
	if slices.Index(args[stdinAt+1:], stdinArg) >= 0 {
		return nil, errors.New("stdin (-) can only be given once")
	}

	fromStdin, err := summariseArg(cmd, svc, stdinArg)
	if err != nil {
		return nil, err
	}

	files := slices.Delete(slices.Clone(args), stdinAt, stdinAt+1)
	results, err := svc.SummariseFiles(cmd.Context(), files)
	if err != nil {
		return nil, err
	}
	return slices.Insert(results, stdinAt, fromStdin), nil
}
