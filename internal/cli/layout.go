package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/portalcore/pkg/graph"
	"github.com/matzehuels/portalcore/pkg/pipeline"
)

// layoutCommand creates the layout command for computing Graphviz layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		gf     graphFlags
		output string
		engine string
	)

	cmd := &cobra.Command{
		Use:   "layout [dictionary.json]",
		Short: "Compute a node-link layout from a data dictionary",
		Long: `Compute a node-link layout from a data dictionary.

The dictionary is built into a leveled graph, described in DOT and laid
out by the embedded Graphviz runtime. The output is a layout.json file
with node boxes, edge paths and the graph bounding box.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.graphOptions(cmd, args[0], gf)
			if err != nil {
				return err
			}
			if engine != "" {
				opts.Engine = engine
			}
			return c.runLayout(cmd, args[0], opts, output, gf.noCache)
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVarP(&engine, "engine", "e", "", "Graphviz engine: dot, neato, fdp, sfdp, circo, twopi (default: layout.engine)")
	_ = cmd.RegisterFlagCompletionFunc("engine", completeEngines)

	return cmd
}

// runLayout runs the pipeline and writes the layout.
func (c *CLI) runLayout(cmd *cobra.Command, input string, opts pipeline.Options, output string, noCache bool) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Computing %s layout...", opts.Engine))
	spinner.Start()
	opts.Progress = func(stage string) { spinner.Update(stage + "...") }

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	path := outputPath(input, output, ".layout.json")
	if err := graph.WriteLayoutFile(result.Layout, path); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	printSuccess("Layout complete")
	printFile(path)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)
	printDetail("%d level crossings · build %s · layout %s",
		result.Stats.Crossings, result.Stats.BuildTime, result.Stats.LayoutTime)
	return nil
}
