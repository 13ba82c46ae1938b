package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/cinesrc/cinesrc/color"
	"github.com/cinesrc/cinesrc/provider"
	"github.com/cinesrc/cinesrc/source"
	"github.com/cinesrc/cinesrc/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

// sourcesCmd provides a parent command for inspecting the built-in drivers.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect the built-in source and embed drivers",
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd)

	sourcesListCmd.Flags().BoolP("raw", "r", false, "Suppress headers in the output")
	sourcesListCmd.Flags().BoolP("embeds", "e", false, "Display only embed drivers")
	sourcesListCmd.Flags().BoolP("sources", "s", false, "Display only source drivers")
	sourcesListCmd.Flags().StringP("filter", "f", "", "Display only drivers whose id fuzzy-matches the pattern")

	sourcesListCmd.MarkFlagsMutuallyExclusive("embeds", "sources")
	sourcesListCmd.SetOut(os.Stdout)
}

// sourcesListCmd displays the registered drivers, highest rank first.
var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Display all registered drivers, highest rank first",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader := !lo.Must(cmd.Flags().GetBool("raw"))
		headerStyle := style.New().Foreground(color.HiBlue).Bold(true).Render
		h := func(s string) {
			if printHeader {
				cmd.Println(headerStyle(s))
			}
		}

		matched := lo.Keyify(provider.Search(lo.Must(cmd.Flags().GetString("filter"))))
		line := func(m source.Meta) {
			if _, ok := matched[m.ID]; !ok {
				return
			}
			if printHeader {
				cmd.Printf("%s %s\n", m.ID, style.Faint(fmt.Sprintf("%d", m.Rank)))
			} else {
				cmd.Println(m.ID)
			}
		}

		printSources := func() {
			h("Sources:")
			for _, s := range provider.Sources() {
				line(s.Meta)
			}
		}

		printEmbeds := func() {
			h("Embeds:")
			for _, e := range provider.Embeds() {
				line(e.Meta)
			}
		}

		switch {
		case lo.Must(cmd.Flags().GetBool("sources")):
			printSources()
		case lo.Must(cmd.Flags().GetBool("embeds")):
			printEmbeds()
		default:
			printSources()
			if printHeader {
				cmd.Println()
			}
			printEmbeds()
		}
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesInfoCmd)
	sourcesInfoCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	sourcesInfoCmd.SetOut(os.Stdout)
}

// driverInfo is what sources info shows about one driver.
type driverInfo struct {
	source.Meta
	Kind     string        `json:"kind"`
	Supports []source.Kind `json:"supports,omitempty"`
}

func lookupDriver(id string) (driverInfo, bool) {
	if s, ok := provider.GetSource(id); ok {
		supports := lo.Filter([]source.Kind{source.Movie, source.Show}, func(k source.Kind, _ int) bool {
			return s.Supports(k)
		})
		return driverInfo{Meta: s.Meta, Kind: "source", Supports: supports}, true
	}
	if e, ok := provider.GetEmbed(id); ok {
		return driverInfo{Meta: e.Meta, Kind: "embed"}, true
	}
	return driverInfo{}, false
}

var driverInfoTemplate = template.Must(template.New("driver").Funcs(template.FuncMap{
	"faint":   style.Faint,
	"bold":    style.Bold,
	"magenta": style.Fg(color.Purple),
	"flags": func(fs source.Flags) string {
		if len(fs) == 0 {
			return "none"
		}
		return strings.Join(lo.Map(fs, func(f source.Flag, _ int) string { return string(f) }), ", ")
	},
	"kinds": func(ks []source.Kind) string {
		return strings.Join(lo.Map(ks, func(k source.Kind, _ int) string { return string(k) }), ", ")
	},
}).Parse(`{{ magenta .ID }} {{ faint .Kind }}

  {{ faint "Name" }}      {{ bold .Name }}
  {{ faint "Rank" }}      {{ bold (printf "%d" .Rank) }}
  {{ faint "Flags" }}     {{ bold (flags .Flags) }}
{{- if .Supports }}
  {{ faint "Supports" }}  {{ bold (kinds .Supports) }}
{{- end }}
`))

// sourcesInfoCmd shows the registration data of one driver.
var sourcesInfoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Display the rank, flags and supported media of a driver",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return provider.IDs(), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := lookupDriver(args[0])
		if !ok {
			handleErr(fmt.Errorf("unknown driver %s, did you mean %s?",
				style.Fg(color.Red)(args[0]),
				style.Fg(color.Yellow)(provider.Suggest(args[0])),
			))
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(info))
			return
		}

		handleErr(driverInfoTemplate.Execute(cmd.OutOrStdout(), info))
	},
}
