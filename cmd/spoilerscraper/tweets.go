package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"spoilerscraper/pkg/auth"
	"spoilerscraper/pkg/checkpoint"
	"spoilerscraper/pkg/config"
	errs "spoilerscraper/pkg/errors"
	"spoilerscraper/pkg/logger"
	"spoilerscraper/pkg/ratelimit"
	"spoilerscraper/pkg/scraper"
	"spoilerscraper/pkg/storage"
	"spoilerscraper/pkg/twitter"
	"spoilerscraper/pkg/ui"
	"spoilerscraper/pkg/ui/tui"
)

var (
	nTweets     int
	useTUI      bool
	profileName string
	notify      bool
)

// tweetsCmd represents the tweets command
var tweetsCmd = &cobra.Command{
	Use:   "tweets <lang>",
	Short: "Collect spoiler posts in one language",
	Long: `Collect posts matching the spoiler query, newest first, until the requested
number of posts containing "spoiler:" has been gathered or the search has
nothing older to return.

Every page is written to the corpus directory as its own batch file before
the next request is made. Rate limits are waited out until the next quota
reset. Interrupting the command keeps every batch already written, and the
next run continues below the oldest stored post.`,
	Example: `  # Collect 500 useful English posts
  spoilerscraper tweets en --n-tweets 500

  # Watch the collection in a dashboard
  spoilerscraper tweets es --tui`,
	Args: cobra.ExactArgs(1),
	RunE: runTweets,
}

func init() {
	rootCmd.AddCommand(tweetsCmd)

	tweetsCmd.Flags().IntVarP(&nTweets, "n-tweets", "n", 0, "posts containing \"spoiler:\" to collect (default from config, 100)")
	tweetsCmd.Flags().BoolVar(&useTUI, "tui", false, "show the interactive collection dashboard")
	tweetsCmd.Flags().StringVar(&profileName, "profile", auth.DefaultProfile, "stored credential profile to use")
	tweetsCmd.Flags().BoolVar(&notify, "notify", false, "raise a desktop notification when the run ends")
}

func runTweets(cmd *cobra.Command, args []string) error {
	lang := strings.TrimSpace(args[0])

	cfg, err := loadConfig(map[string]interface{}{
		"lang":     lang,
		"n-tweets": nTweets,
	})
	if err != nil {
		return err
	}
	log := logger.GetLogger().WithField("command", "tweets")

	store, err := storage.NewManager(cfg.Corpus.Directory)
	if err != nil {
		return err
	}

	state, err := checkpoint.Reconstruct(store)
	if err != nil {
		return fmt.Errorf("failed to rebuild collector state: %w", err)
	}
	if !quiet {
		reportState(state)
	}
	defer func() {
		if !quiet {
			reportState(state)
		}
	}()

	if err := resolveCredentials(&cfg.Twitter, profileName); err != nil {
		return err
	}

	req := scraper.Request{Target: cfg.Collector.TargetCount, Language: cfg.Collector.Language}
	progress := &scraper.Progress{Target: req.Target}

	// The dashboard owns the terminal, so log lines go to its log panel
	console := logger.GetLogger()
	var dashboard *tui.TUI
	if useTUI {
		dashboard = tui.NewTUI(req.Language, req.Target, *state)
		panel, err := logger.NewWithSink(&cfg.Logging, dashboard.Log)
		if err != nil {
			return err
		}
		logger.SetLogger(panel)
		log = panel.WithField("command", "tweets")
		defer logger.SetLogger(console)
	}

	client, err := twitter.NewClient(&cfg.Twitter,
		ratelimit.NewWindowLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window),
		logger.GetLogger())
	if err != nil {
		return err
	}

	s := scraper.New(client, scraper.OptionsFromConfig(cfg), logger.GetLogger())

	ctx, stop := signalContext()
	defer stop()

	log.InfoWithFields("Collection starting", map[string]interface{}{
		"lang":     req.Language,
		"target":   req.Target,
		"cursor":   state.CursorString(),
		"accepted": state.AcceptedCount,
		"corpus":   store.Dir(),
	})

	if dashboard != nil {
		s.SetReporter(dashboard)
		err = dashboard.Run(ctx, func(ctx context.Context) error {
			return s.Run(ctx, req, state, progress, store)
		})
		logger.SetLogger(console)
		log = console.WithField("command", "tweets")
	} else {
		var display *ui.ProgressDisplay
		if !quiet {
			display = ui.NewProgressDisplay(req.Language, verbose)
			s.SetReporter(display)
		}
		err = s.Run(ctx, req, state, progress, store)
		if display != nil && err == nil {
			display.Complete()
		}
	}

	notifier := ui.NewNotifier(notify)
	if err != nil {
		log.WithError(err).WithField("type", string(errs.TypeOf(err))).Error("Collection failed")
		notifier.SendError("Collection failed", err.Error())
		return err
	}

	log.InfoWithFields("Collection finished", map[string]interface{}{
		"useful":  progress.Useful,
		"fetched": progress.Fetched,
		"pages":   progress.Pages,
		"done":    progress.Done(),
	})
	if !quiet {
		notifier.SendSuccess("Collection complete",
			fmt.Sprintf("%d useful posts in %d pages", progress.Useful, progress.Pages))
	}
	return nil
}

// reportState prints where the corpus currently stands
func reportState(state *checkpoint.State) {
	ui.PrintInfo("Last id", state.CursorString())
	ui.PrintInfo("Tweets scraped", strconv.Itoa(state.AcceptedCount))
}

// resolveCredentials fills missing secrets in cfg from the credential stores.
// No request is made without a usable credential.
func resolveCredentials(cfg *config.TwitterConfig, profile string) error {
	if cfg.BearerToken != "" || cfg.UsesOAuth1() {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	cred, err := manager.Retrieve(profile)
	if err == nil {
		cred.Apply(cfg)
		logger.WithField("profile", cred.Profile).Debug("Using stored credentials")
	}

	if cfg.BearerToken == "" && !cfg.UsesOAuth1() {
		return errs.New(errs.ErrorTypeAuth, 0,
			"no API credential found: set BEARER_TOKEN or run 'spoilerscraper auth login'")
	}
	return nil
}
