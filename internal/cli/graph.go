package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/dag/transform"
	"github.com/matzehuels/portalcore/pkg/dictionary"
	"github.com/matzehuels/portalcore/pkg/graph"
	"github.com/matzehuels/portalcore/pkg/pipeline"
)

// graphFlags are the build options shared by the dictionary commands.
type graphFlags struct {
	countsFile string
	linksFile  string
	createAll  bool
	hidden     []string
	rowSize    int
	noCache    bool
	refresh    bool
}

func (gf *graphFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&gf.countsFile, "counts", "", "JSON file of node counts ({\"_<id>_count\": n})")
	cmd.Flags().StringVar(&gf.linksFile, "links", "", "JSON file of link counts ({\"<source>_<name>_to_<target>_link\": n})")
	cmd.Flags().BoolVar(&gf.createAll, "create-all", false, "include nodes with no observed records")
	cmd.Flags().StringSliceVar(&gf.hidden, "hidden", nil, "node IDs to leave out (default: graph.hidden_nodes)")
	cmd.Flags().IntVar(&gf.rowSize, "row-size", 0, "arrange nodes in a grid of this width instead of BFS levels")
	cmd.Flags().BoolVar(&gf.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&gf.refresh, "refresh", false, "ignore cached results")
}

// options merges the flags that were set over the configuration.
func (c *CLI) graphOptions(cmd *cobra.Command, input string, gf graphFlags) (pipeline.Options, error) {
	opts := pipeline.FromConfig(c.cfg)
	opts.Logger = loggerFromContext(cmd.Context())
	opts.Refresh = gf.refresh

	d, err := dictionary.ReadFile(input)
	if err != nil {
		return opts, fmt.Errorf("load dictionary %s: %w", input, err)
	}
	opts.Dictionary = d

	if gf.countsFile != "" {
		if err := readJSON(gf.countsFile, &opts.Counts); err != nil {
			return opts, err
		}
	}
	if gf.linksFile != "" {
		if err := readJSON(gf.linksFile, &opts.Links); err != nil {
			return opts, err
		}
	}
	if cmd.Flags().Changed("create-all") {
		opts.CreateAll = gf.createAll
	}
	if cmd.Flags().Changed("hidden") {
		opts.Hidden = gf.hidden
	}
	if cmd.Flags().Changed("row-size") {
		opts.RowSize = gf.rowSize
	}
	return opts, nil
}

// buildGraph builds and levels the graph described by input.
func (c *CLI) buildGraph(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*dag.DAG, transform.Levels, bool, error) {
	g, hit, err := runner.BuildWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, transform.Levels{}, false, fmt.Errorf("build graph: %w", err)
	}
	return g, runner.Level(g, opts), hit, nil
}

// outputPath derives <input>.<suffix> unless output is set.
func outputPath(input, output, suffix string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

// graphCommand creates the graph command that builds a leveled graph from
// a data dictionary.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		gf     graphFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "graph [dictionary.json]",
		Short: "Build a leveled graph from a data dictionary",
		Long: `Build a leveled graph from a data dictionary.

Each dictionary entry of type object becomes a node and each link an edge
from the child to its parent. Given --counts and --links, only nodes and
links with observed records are kept unless --create-all is set. Nodes
are arranged in breadth-first levels below the root.

The result is written as graph.json and can be laid out with 'layout'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args[0], gf, output)
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.graph.json)")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, input string, gf graphFlags, output string) error {
	ctx := cmd.Context()
	opts, err := c.graphOptions(cmd, input, gf)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, gf.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(opts.Logger)
	g, levels, hit, err := c.buildGraph(ctx, runner, opts)
	if err != nil {
		return err
	}
	prog.done("Built graph", "nodes", g.NodeCount(), "levels", len(levels.LevelsToIDs))

	path := outputPath(input, output, ".graph.json")
	if err := graph.WriteGraphFile(g, &levels, path); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	printSuccess("Graph complete")
	printFile(path)
	printStats(g.NodeCount(), g.EdgeCount(), hit)
	printNextStep("Lay out", appName+" layout "+input)
	return nil
}

// dotCommand creates the dot command that prints the Graphviz description
// of a dictionary graph.
func (c *CLI) dotCommand() *cobra.Command {
	var (
		gf     graphFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "dot [dictionary.json]",
		Short: "Print the Graphviz DOT description of a dictionary graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := c.graphOptions(cmd, args[0], gf)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, gf.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			g, levels, _, err := c.buildGraph(ctx, runner, opts)
			if err != nil {
				return err
			}
			dot := runner.Describe(g, levels, opts)
			if output == "" {
				_, err := fmt.Fprint(c.Out, dot)
				return err
			}
			if err := os.WriteFile(output, []byte(dot), 0o644); err != nil {
				return fmt.Errorf("write output %s: %w", output, err)
			}
			printSuccess("DOT written")
			printFile(output)
			return nil
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}
