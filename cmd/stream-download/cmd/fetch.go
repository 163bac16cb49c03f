package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gosuri/uilive"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-stream-download/internal/extractor"
	"go-stream-download/internal/helpers"
	"go-stream-download/internal/jobs"
	"go-stream-download/internal/models"
)

var (
	fetchTypeFlag        string
	fetchAudioFormatFlag string
)

// fetchCmd downloads a single URL from the command line, reusing the same
// job machinery as the HTTP service.
var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download one URL and exit",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchTypeFlag, "type", "video", "What to download: video or audio")
	fetchCmd.Flags().StringVar(&fetchAudioFormatFlag, "audio-format", "mp3", "Audio container for --type audio: mp3 or original")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	url := args[0]

	kind := models.DownloadType(fetchTypeFlag)
	if !kind.Valid() {
		return fmt.Errorf("invalid --type %q, must be video or audio", fetchTypeFlag)
	}
	format := models.AudioFormat(fetchAudioFormatFlag)
	if !format.Valid() {
		return fmt.Errorf("invalid --audio-format %q, must be mp3 or original", fetchAudioFormatFlag)
	}

	cfg := globalConfig
	client := extractor.NewClient(extractor.ClientConfig{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		CookiesFile:    cfg.CookiesFile,
		FFmpegPath:     cfg.FFmpegPath,
		VerboseLogs:    cfg.VerboseExtractorLogs,
	})

	registry := jobs.NewRegistry()
	runner := jobs.NewRunner(jobs.RunnerConfig{
		DownloadsDir: cfg.DownloadsDir,
		CookiesFile:  cfg.CookiesFile,
		FFmpegPath:   cfg.FFmpegPath,
		VerboseLogs:  cfg.VerboseExtractorLogs,
	}, client, registry)
	pool := jobs.NewPool(1)
	defer pool.Close()

	id := registry.Create(kind, format, url)
	pool.Submit(func() {
		runner.Run(context.Background(), id)
	})

	writer := uilive.New()
	writer.Start()
	started := time.Now()
	var job models.Job
	for {
		job, _ = registry.Get(id)
		if job.Status.Terminal() {
			break
		}
		fmt.Fprintf(writer, "%-8s %s (%s)\n", job.Status, url, time.Since(started).Round(time.Second))
		time.Sleep(250 * time.Millisecond)
	}
	writer.Stop()

	if job.Status == models.JobStatusError {
		fmt.Fprintln(os.Stderr, job.Error)
		return fmt.Errorf("download failed")
	}

	path := filepath.Join(runner.WorkDir(id), job.Filename)
	size := "unknown size"
	if st, err := os.Stat(path); err == nil {
		size = helpers.BytesToSize(uint64(st.Size()))
	} else {
		log.WithError(err).Warnf("Could not stat %s", path)
	}
	fmt.Printf("Saved %s (%s)\n", path, size)
	if job.Checksum != "" {
		fmt.Printf("BLAKE3 %s\n", job.Checksum)
	}
	return nil
}
