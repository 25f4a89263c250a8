package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/portalcore/pkg/filter"
	"github.com/matzehuels/portalcore/pkg/gql"
	"github.com/matzehuels/portalcore/pkg/query"
)

// queryKinds lists the builders reachable from the query command.
var queryKinds = []string{"chart", "count", "total", "mapping", "options", "subagg", "raw", "download"}

type queryOpts struct {
	filterFile string
	combine    string
	dataType   string
	fields     []string

	anchorValue string
	tabsFile    string
	initial     bool

	mainField string
	terms     []string
	missing   []string
	asText    bool

	sort   []string
	offset int
	size   int
	format string
	total  bool
}

// queryCommand creates the query command that prints explorer GraphQL
// requests.
func (c *CLI) queryCommand() *cobra.Command {
	var opts queryOpts

	cmd := &cobra.Command{
		Use:   "query <" + strings.Join(queryKinds, "|") + ">",
		Short: "Build an explorer GraphQL request",
		Long: `Build an explorer GraphQL request.

The request is printed as {"query": ..., "variables": ...}, ready to be
posted to the guppy endpoint. The download kind prints the body of a bulk
download request instead. A filter state may be given with --filter.`,
		ValidArgs: queryKinds,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQuery(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.filterFile, "filter", "f", "", "filter state JSON file (- for stdin)")
	cmd.Flags().StringVar(&opts.combine, "combine", string(filter.CombineAnd), "top-level combine mode: AND, OR")
	cmd.Flags().StringVarP(&opts.dataType, "type", "t", "", "data type (default: explorer.data_type)")
	cmd.Flags().StringSliceVar(&opts.fields, "fields", nil, "fields to request")

	cmd.Flags().StringVar(&opts.anchorValue, "anchor-value", "", "selected anchor value (options)")
	cmd.Flags().StringVar(&opts.tabsFile, "tabs", "", "JSON file of filter tabs [{title, fields}] (options)")
	cmd.Flags().BoolVar(&opts.initial, "initial", false, "initial options query, adds unfiltered counts")

	cmd.Flags().StringVar(&opts.mainField, "main-field", "", "field to break down (subagg)")
	cmd.Flags().StringSliceVar(&opts.terms, "terms", nil, "terms fields (subagg)")
	cmd.Flags().StringSliceVar(&opts.missing, "missing", nil, "missing fields (subagg)")
	cmd.Flags().BoolVar(&opts.asText, "as-text", false, "treat the main field as text (subagg)")

	cmd.Flags().StringSliceVar(&opts.sort, "sort", nil, "sort as field:asc or field:desc (raw, download)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "records to skip (raw)")
	cmd.Flags().IntVar(&opts.size, "size", query.DefaultPageSize, "page size (raw)")
	cmd.Flags().StringVar(&opts.format, "format", "", "record format, e.g. json or tsv (raw)")
	cmd.Flags().BoolVar(&opts.total, "total", false, "also request the total count (raw)")

	return cmd
}

func (c *CLI) runQuery(cmd *cobra.Command, kind string, opts queryOpts) error {
	typ := opts.dataType
	if typ == "" {
		typ = c.cfg.Explorer.DataType
	}

	var state filter.State
	if opts.filterFile != "" {
		if err := readJSON(opts.filterFile, &state); err != nil {
			return err
		}
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

	sort, err := parseSort(opts.sort)
	if err != nil {
		return err
	}

	out, err := c.buildQuery(kind, typ, f, state.Len() == 0, sort, opts)
	if err != nil {
		return err
	}
	return writeJSON(c.Out, out)
}

func (c *CLI) buildQuery(kind, typ string, f gql.Filter, filterEmpty bool, sort []map[string]string, opts queryOpts) (any, error) {
	switch kind {
	case "chart":
		return query.AggregationChart(typ, opts.fields, f)
	case "count":
		return query.AggregationCount(typ, f)
	case "total":
		return query.TotalCount(typ, f)
	case "mapping":
		return query.Mapping(typ)
	case "options":
		var tabs []query.FilterTab
		if opts.tabsFile != "" {
			if err := readJSON(opts.tabsFile, &tabs); err != nil {
				return nil, err
			}
		} else if len(opts.fields) > 0 {
			tabs = []query.FilterTab{{Title: "Filters", Fields: opts.fields}}
		}
		var anchor *query.AnchorConfig
		if c.cfg.Explorer.AnchorField != "" {
			anchor = &query.AnchorConfig{Field: c.cfg.Explorer.AnchorField, Tabs: c.cfg.Explorer.AnchorTabs}
		}
		info := query.OptionsQueryInfo(anchor, opts.anchorValue, tabs, f)
		return query.AggregationOptions(typ, info, filterEmpty, opts.initial)
	case "subagg":
		return query.SubAggregation(query.SubAggregationArgs{
			Type:             typ,
			MainField:        opts.mainField,
			NumericAggAsText: opts.asText,
			TermsFields:      opts.terms,
			MissingFields:    opts.missing,
			Filter:           f,
		})
	case "raw":
		return query.RawData(query.RawDataArgs{
			Type:           typ,
			Fields:         opts.fields,
			Filter:         f,
			Sort:           sort,
			Offset:         opts.offset,
			Size:           opts.size,
			Format:         opts.format,
			WithTotalCount: opts.total,
		})
	case "download":
		return query.Download(typ, opts.fields, f, sort)
	}
	return nil, fmt.Errorf("unknown query kind %q", kind)
}

// parseSort turns field:direction pairs into sort clauses. A bare field
// sorts ascending.
func parseSort(specs []string) ([]map[string]string, error) {
	var out []map[string]string
	for _, s := range specs {
		field, dir, ok := strings.Cut(s, ":")
		if !ok {
			dir = "asc"
		}
		dir = strings.ToLower(dir)
		if field == "" || (dir != "asc" && dir != "desc") {
			return nil, fmt.Errorf("invalid sort %q, want field:asc or field:desc", s)
		}
		out = append(out, map[string]string{field: dir})
	}
	return out, nil
}
