package cmd

import (
	"github.com/JonMunkholm/fileparse/internal/core"
	"github.com/spf13/cobra"
)

func newCSVCommand(opts *options) *cobra.Command {
	var delimiter string
	var rowsOnly bool

	c := &cobra.Command{
		Use:   "csv <file|->",
		Short: "Parse a CSV file",
		Long: `Parse a CSV file and print the result as JSON.

The first non-blank line is the header. Each later non-blank line becomes
a row keyed by header name; missing fields are null and surplus fields are
keyed extra_1, extra_2, ... Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}

			parseOpts := core.ParseOptions{Delimiter: core.NormalizeDelimiter(delimiter)}

			var result *core.ParseResult
			if args[0] == "-" {
				result, err = svc.ParseCSV(cmd.Context(), "stdin", cmd.InOrStdin(), parseOpts)
			} else {
				result, err = svc.LoadCSVFile(cmd.Context(), args[0], parseOpts)
			}
			if err != nil {
				return err
			}

			if rowsOnly {
				return opts.writeJSON(cmd.OutOrStdout(), result.Rows)
			}
			return opts.writeJSON(cmd.OutOrStdout(), result)
		},
	}

	c.Flags().StringVarP(&delimiter, "delimiter", "d", "", `field delimiter (default from PARSE_DELIMITER, "tab" for \t)`)
	c.Flags().BoolVar(&rowsOnly, "rows", false, "print only the rows array")

	return c
}
