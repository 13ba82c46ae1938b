// Package cmd implements the command-line interface for cinesrc.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cinesrc/cinesrc/color"
	"github.com/cinesrc/cinesrc/constant"
	"github.com/cinesrc/cinesrc/icon"
	"github.com/cinesrc/cinesrc/key"
	"github.com/cinesrc/cinesrc/log"
	"github.com/cinesrc/cinesrc/provider"
	"github.com/cinesrc/cinesrc/runner"
	"github.com/cinesrc/cinesrc/source"
	"github.com/cinesrc/cinesrc/style"
	"github.com/cinesrc/cinesrc/util"
	"github.com/cinesrc/cinesrc/version"
	"github.com/cinesrc/cinesrc/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func completionSourceIDs(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Map(provider.Sources(), func(s *source.Sourcerer, _ int) string {
		return s.ID
	}), cobra.ShellCompDirectiveNoFileComp
}

func completionTargets(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Map(runner.Targets, func(t runner.Target, _ int) string {
		return string(t)
	}), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().StringSliceP("source", "S", []string{}, "Source drivers to query, by id")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("source", completionSourceIDs))
	lo.Must0(viper.BindPFlag(key.DefaultSources, rootCmd.PersistentFlags().Lookup("source")))

	rootCmd.PersistentFlags().String("target", "", "Playback target the streams must suit (native, browser, browser-extension)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("target", completionTargets))
	lo.Must0(viper.BindPFlag(key.ScrapeTarget, rootCmd.PersistentFlags().Lookup("target")))

	rootCmd.PersistentFlags().Bool("tls-fingerprint", false, "Emulate a Chrome TLS fingerprint")
	lo.Must0(viper.BindPFlag(key.NetworkTLSFingerprint, rootCmd.PersistentFlags().Lookup("tls-fingerprint")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for the cinesrc application.
var rootCmd = &cobra.Command{
	Use:   constant.App,
	Short: "Resolve playable streams for movies and shows",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Resolve playable streams for movies and shows"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err == nil {
		return
	}

	var unknown *runner.UnknownDriverError
	if errors.As(err, &unknown) {
		err = fmt.Errorf("%w, did you mean %s?", err, style.Fg(color.Yellow)(provider.Suggest(unknown.ID)))
	}

	log.Error(err)
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
	os.Exit(1)
}
