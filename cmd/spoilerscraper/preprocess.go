package main

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"spoilerscraper/pkg/logger"
	"spoilerscraper/pkg/preprocess"
	"spoilerscraper/pkg/storage"
	"spoilerscraper/pkg/ui"
)

var (
	preprocessLimit int
	spoilerFile     string
)

// preprocessCmd represents the preprocess command
var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Extract spoiler spans from the collected corpus",
	Long: `Read the stored posts, normalize their text (NFKC, entities, @USER,
#TAG and URL placeholders) and write the text following every "spoiler:"
marker to the spoiler file in the corpus directory, one span per line.

The file is replaced only once the run succeeds.`,
	Example: `  spoilerscraper preprocess
  spoilerscraper preprocess --limit 50000 --data-path ./corpus/es`,
	Args: cobra.NoArgs,
	RunE: runPreprocess,
}

func init() {
	rootCmd.AddCommand(preprocessCmd)

	preprocessCmd.Flags().IntVar(&preprocessLimit, "limit", 0, "maximum records to scan (default from config, 1000000)")
	preprocessCmd.Flags().StringVarP(&spoilerFile, "output", "o", "", "spoiler file name inside the corpus directory")
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"limit":  preprocessLimit,
		"output": spoilerFile,
	})
	if err != nil {
		return err
	}

	store, err := storage.NewManager(cfg.Corpus.Directory)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	p := preprocess.NewPreprocessor(cfg.Corpus.PreprocessLimit, logger.GetLogger())

	var stats preprocess.Stats
	path, err := store.WriteSpoilerFile(cfg.Corpus.SpoilerFile, func(w io.Writer) error {
		var runErr error
		stats, runErr = p.Run(ctx, store, w)
		return runErr
	})
	if err != nil {
		return err
	}

	if !quiet {
		ui.PrintInfo("Records scanned", strconv.Itoa(stats.Scanned))
		ui.PrintInfo("Spoilers found", strconv.Itoa(stats.Spoilers))
		ui.PrintSuccess("Wrote " + path)
	}
	return nil
}
