package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/cinesrc/cinesrc/key"
	"github.com/cinesrc/cinesrc/network"
	"github.com/cinesrc/cinesrc/runner"
	"github.com/cinesrc/cinesrc/source"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.AddCommand(scrapeMovieCmd, scrapeShowCmd)

	scrapeCmd.PersistentFlags().Bool("consistent-ip", true, "Keep streams that only play from the resolving IP")
	lo.Must0(viper.BindPFlag(key.ScrapeConsistentIP, scrapeCmd.PersistentFlags().Lookup("consistent-ip")))
	scrapeCmd.PersistentFlags().IntP("concurrency", "c", 0, "Embeds resolved in parallel per source")
	lo.Must0(viper.BindPFlag(key.ScrapeConcurrency, scrapeCmd.PersistentFlags().Lookup("concurrency")))

	for _, c := range []*cobra.Command{scrapeMovieCmd, scrapeShowCmd} {
		c.Flags().StringP("title", "t", "", "Title of the media")
		c.Flags().IntP("year", "y", 0, "Release year of the media")
		c.Flags().String("tmdb", "", "TMDB id of the media, required by some sources")
		lo.Must0(c.MarkFlagRequired("title"))
		addOutputFlags(c)
	}

	scrapeShowCmd.Flags().IntP("season", "s", 0, "Season number")
	scrapeShowCmd.Flags().IntP("episode", "e", 0, "Episode number")
	lo.Must0(scrapeShowCmd.MarkFlagRequired("season"))
	lo.Must0(scrapeShowCmd.MarkFlagRequired("episode"))
}

// scrapeCmd groups the media kinds that can be resolved.
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Resolve playable streams for a movie or an episode",
}

var scrapeMovieCmd = &cobra.Command{
	Use:   "movie",
	Short: "Resolve playable streams for a movie",
	Example: "  cinesrc scrape movie --title \"Fight Club\" --year 1999 --tmdb 550\n" +
		"  cinesrc scrape movie -t \"Fight Club\" -S hurawatch --json",
	Run: func(cmd *cobra.Command, args []string) {
		runScrape(cmd, mediaFromFlags(cmd, source.Movie))
	},
}

var scrapeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Resolve playable streams for an episode of a show",
	Example: "  cinesrc scrape show --title \"Breaking Bad\" --season 1 --episode 3",
	Run: func(cmd *cobra.Command, args []string) {
		runScrape(cmd, mediaFromFlags(cmd, source.Show))
	},
}

func mediaFromFlags(cmd *cobra.Command, kind source.Kind) source.Media {
	media := source.Media{
		Kind:   kind,
		Title:  lo.Must(cmd.Flags().GetString("title")),
		TMDBID: lo.Must(cmd.Flags().GetString("tmdb")),
	}

	if cmd.Flags().Changed("year") {
		media.Year = mo.Some(lo.Must(cmd.Flags().GetInt("year")))
	}

	if kind == source.Show {
		media.Season = mo.Some(lo.Must(cmd.Flags().GetInt("season")))
		media.Episode = mo.Some(lo.Must(cmd.Flags().GetInt("episode")))
	}

	return media
}

// runnerOptions reads the scrape.* and network.* configuration.
func runnerOptions() runner.Options {
	target, err := runner.ParseTarget(viper.GetString(key.ScrapeTarget))
	handleErr(err)

	return runner.Options{
		Sources:      viper.GetStringSlice(key.DefaultSources),
		Target:       target,
		ConsistentIP: viper.GetBool(key.ScrapeConsistentIP),
		Concurrency:  viper.GetInt(key.ScrapeConcurrency),
		Fetcher:      network.NewFromConfig(),
	}
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScrape(cmd *cobra.Command, media source.Media) {
	handleErr(media.Validate())

	opts := runnerOptions()
	opts.Media = media

	ctx, stop := interruptible()
	defer stop()

	stopProgress := progress("Resolving " + media.String())
	report, err := runner.Run(ctx, opts)
	stopProgress()

	if report == nil {
		handleErr(err)
	}
	handleErr(writeReport(cmd, report))
	handleErr(err)
}
