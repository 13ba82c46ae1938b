package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/cinesrc/cinesrc/color"
	"github.com/cinesrc/cinesrc/filesystem"
	"github.com/cinesrc/cinesrc/icon"
	"github.com/cinesrc/cinesrc/runner"
	"github.com/cinesrc/cinesrc/source"
	"github.com/cinesrc/cinesrc/style"
	"github.com/cinesrc/cinesrc/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false, "Print the report as JSON")
	cmd.Flags().BoolP("pick", "p", false, "Choose one stream interactively and print its locator")
	cmd.Flags().StringP("output", "o", "", "Write the JSON report to a file, or into a directory named after the media")
	cmd.MarkFlagsMutuallyExclusive("json", "pick")
}

var errNoStreams = errors.New("no playable streams found")

// writeReport honours --output, --json and --pick, in that order.
func writeReport(cmd *cobra.Command, report *runner.Report) error {
	if path := lo.Must(cmd.Flags().GetString("output")); path != "" {
		if isDir, _ := filesystem.API().IsDir(path); isDir {
			path = filepath.Join(path, util.SanitizeFilename(report.Media.String())+".json")
		}

		f, err := filesystem.API().Create(path)
		if err != nil {
			return err
		}
		defer util.Ignore(f.Close)

		if err := encodeReport(f, report); err != nil {
			return err
		}
		cmd.Printf("%s wrote %s to %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), util.Quantify(len(report.Results), "stream", "streams"), path)
		return nil
	}

	if lo.Must(cmd.Flags().GetBool("json")) {
		return encodeReport(cmd.OutOrStdout(), report)
	}

	if lo.Must(cmd.Flags().GetBool("pick")) {
		return pickStream(cmd.OutOrStdout(), report)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		for _, r := range report.Results {
			fmt.Fprintln(cmd.OutOrStdout(), r.Stream.Locator())
		}
		return nil
	}

	renderReport(cmd.OutOrStdout(), report)
	return nil
}

func encodeReport(w io.Writer, report *runner.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func resultLabel(r runner.Result) string {
	origin := r.SourceID
	if r.EmbedID != "" {
		origin += "/" + r.EmbedID
	}
	return fmt.Sprintf("%s %s [%s]", origin, r.Stream.ID, r.Stream.Type)
}

func pickStream(w io.Writer, report *runner.Report) error {
	if len(report.Results) == 0 {
		return errNoStreams
	}

	labels := lo.Map(report.Results, func(r runner.Result, _ int) string {
		return resultLabel(r)
	})

	var picked int
	err := survey.AskOne(&survey.Select{
		Message: "Stream",
		Options: labels,
	}, &picked)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, report.Results[picked].Stream.Locator())
	return err
}

func renderReport(w io.Writer, report *runner.Report) {
	var (
		header = style.New().Bold(true).Foreground(color.HiPurple).Render
		width  = 80
	)
	if tw, _, err := util.TerminalSize(); err == nil && tw > 0 {
		width = tw
	}

	fmt.Fprintf(w, "%s %s\n", header(report.Media.String()), style.Faint(util.Quantify(len(report.Results), "stream", "streams")))

	for _, r := range report.Results {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", style.Fg(color.Green)(icon.Get(icon.Stream)), style.Bold(resultLabel(r)))
		fmt.Fprintf(w, "  %s\n", style.Truncate(util.Max(width-2, 20))(r.Stream.Locator()))

		if flags := r.Stream.Flags; len(flags) > 0 {
			names := lo.Map(flags, func(f source.Flag, _ int) string { return string(f) })
			fmt.Fprintf(w, "  %s %s\n", icon.Get(icon.Lock), style.Fg(color.Yellow)(strings.Join(names, ", ")))
		}

		if len(r.Stream.Captions) > 0 {
			langs := lo.Map(r.Stream.Captions, func(c source.Caption, _ int) string { return c.Language })
			fmt.Fprintf(w, "  %s %s\n", icon.Get(icon.Caption), style.Faint(strings.Join(lo.Uniq(langs), " ")))
		}
	}

	if len(report.Failures) == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, f := range report.Failures {
		fmt.Fprintf(w, "%s %s %s\n", style.Fg(color.Red)(icon.Get(icon.Fail)), style.Tag(color.Black, color.Yellow)(string(f.Kind)), style.Faint(f.Error()))
	}
}

// progress prints an erasable status line on terminals.
func progress(msg string) (stop func()) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return func() {}
	}
	return util.PrintErasable(fmt.Sprintf("%s %s...", icon.Get(icon.Progress), msg))
}
