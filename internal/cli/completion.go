package cli

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/portalcore/pkg/filter"
	"github.com/matzehuels/portalcore/pkg/pipeline"
)

// completionCommand prints a shell completion script.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for portalcore.

  $ source <(portalcore completion bash)
  $ portalcore completion zsh > "${fpath[1]}/_portalcore"
  $ portalcore completion fish > ~/.config/fish/completions/portalcore.fish
  PS> portalcore completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(c.Out, true)
			case "zsh":
				return root.GenZshCompletion(c.Out)
			case "fish":
				return root.GenFishCompletion(c.Out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(c.Out)
			}
		},
	}
}

// completeEngines completes --engine with the supported Graphviz engines.
func completeEngines(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	engines := make([]string, 0, len(pipeline.ValidEngines))
	for name := range pipeline.ValidEngines {
		engines = append(engines, name)
	}
	slices.Sort(engines)
	return engines, cobra.ShellCompDirectiveNoFileComp
}

// completeCombineModes completes --combine.
func completeCombineModes(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{string(filter.CombineAnd), string(filter.CombineOr)}, cobra.ShellCompDirectiveNoFileComp
}
