package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/portalcore/pkg/dag/structure"
)

// structureCommand creates the structure command that summarizes how a
// node connects down to the root.
func (c *CLI) structureCommand() *cobra.Command {
	var (
		gf       graphFlags
		node     string
		subgraph []string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "structure [dictionary.json]",
		Short: "Summarize the data model structure below a node",
		Long: `Summarize the data model structure below a node.

Every path from the start node down to the root passes through a chain of
critical nodes. The summary lists them from the root end back to the
start, with the nodes and links between consecutive critical nodes.

Without --node an interactive picker is shown.`,
		Args: cobra.ExactArgs(1),
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

			start := node
			if start == "" {
				m, err := tea.NewProgram(NewNodeListModel(nodeItems(g, levels))).Run()
				if err != nil {
					return fmt.Errorf("node picker: %w", err)
				}
				picked := m.(NodeListModel).Selected
				if picked == nil {
					return nil
				}
				start = picked.ID
			}

			summary, err := runner.Summarize(ctx, g, start, subgraph, opts)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(c.Out, summary)
			}
			if summary == nil {
				printWarning("No summary: the subgraph below %s has a cycle", start)
				return nil
			}
			printSummary(start, summary)
			return nil
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVarP(&node, "node", "n", "", "start node ID")
	cmd.Flags().StringSliceVar(&subgraph, "subgraph", nil, "restrict to these node IDs (default: whole graph)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

// printSummary renders the critical node chain as a table followed by the
// routes.
func printSummary(start string, s *structure.Summary) {
	rows := make([][]string, 0, len(s.Structure))
	for _, e := range s.Structure {
		before := strings.Join(e.NodeIDsBefore, ", ")
		if before == "" {
			before = "—"
		}
		rows = append(rows, []string{e.NodeID, e.Category, before, fmt.Sprint(len(e.LinksBefore))})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Node", "Category", "Nodes before", "Links").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			switch col {
			case 0:
				return StyleHighlight
			case 1:
				return categoryStyle(rows[row][1])
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		})

	printSuccess("Structure below %s", StyleValue.Render(start))
	fmt.Println(t.Render())
	for _, r := range s.Routes {
		printDetail("%s", strings.Join(r, " "+iconArrow+" "))
	}
}
