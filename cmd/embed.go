package cmd

import (
	"github.com/cinesrc/cinesrc/provider"
	"github.com/cinesrc/cinesrc/runner"
	"github.com/cinesrc/cinesrc/source"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(embedCmd)
	addOutputFlags(embedCmd)
}

var embedCmd = &cobra.Command{
	Use:     "embed <id> <url>",
	Short:   "Resolve a single embed player URL",
	Example: "  cinesrc embed megacloud https://megacloud.tv/embed-2/e-1/abc123?k=1",
	Args:    cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return lo.Map(provider.Embeds(), func(e *source.Embed, _ int) string {
			return e.ID
		}), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		ref := source.EmbedRef{EmbedID: args[0], URL: args[1]}
		handleErr(ref.Validate())

		ctx, stop := interruptible()
		defer stop()

		stopProgress := progress("Resolving " + ref.EmbedID)
		report, err := runner.RunEmbed(ctx, runnerOptions(), ref)
		stopProgress()

		if report == nil {
			handleErr(err)
		}
		handleErr(writeReport(cmd, report))
		handleErr(err)
	},
}
