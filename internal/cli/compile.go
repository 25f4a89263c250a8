package cli

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/spf13/cobra"

	"github.com/matzehuels/portalcore/pkg/filter"
	"github.com/matzehuels/portalcore/pkg/gql/sqlfilter"
)

type compileOpts struct {
	combine   string
	sql       bool
	dollar    bool
	rootTable string
}

// compileCommand creates the compile command for turning filter state into
// a GraphQL filter or SQL predicate.
func (c *CLI) compileCommand() *cobra.Command {
	var opts compileOpts

	cmd := &cobra.Command{
		Use:   "compile [filter.json]",
		Short: "Compile a filter state into a GraphQL filter",
		Long: `Compile a filter state into a GraphQL filter.

The input is the filter panel state: a JSON object from field name to an
option, range or anchored selection. It is read from the given file or
from stdin. With --sql the compiled filter is rendered as a SQL predicate
instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return c.runCompile(cmd, input, opts)
		},
	}

	cmd.Flags().StringVar(&opts.combine, "combine", string(filter.CombineAnd), "top-level combine mode: AND, OR")
	_ = cmd.RegisterFlagCompletionFunc("combine", completeCombineModes)
	cmd.Flags().BoolVar(&opts.sql, "sql", false, "print a SQL predicate instead of the GraphQL filter")
	cmd.Flags().BoolVar(&opts.dollar, "dollar", false, "use $n placeholders in SQL output")
	cmd.Flags().StringVar(&opts.rootTable, "root-table", "", "table qualifying top-level fields in SQL output")

	return cmd
}

func (c *CLI) runCompile(cmd *cobra.Command, input string, opts compileOpts) error {
	var state filter.State
	if err := readJSON(input, &state); err != nil {
		return err
	}

	runner, err := c.newRunner(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer runner.Close()

	f, err := runner.Compile(cmd.Context(), state, filter.CombineMode(opts.combine))
	if err != nil {
		return fmt.Errorf("compile filter: %w", err)
	}

	if !opts.sql {
		return writeJSON(c.Out, map[string]any{"gqlFilter": f})
	}

	var format sq.PlaceholderFormat = sq.Question
	if opts.dollar {
		format = sq.Dollar
	}
	query, sqlArgs, err := sqlfilter.ToSQL(f, sqlfilter.Options{RootTable: opts.rootTable}, format)
	if err != nil {
		return fmt.Errorf("render sql: %w", err)
	}
	if sqlArgs == nil {
		sqlArgs = []any{}
	}
	return writeJSON(c.Out, map[string]any{"sql": query, "args": sqlArgs})
}
