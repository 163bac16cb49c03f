package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/lrstanley/go-ytdlp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-stream-download/internal/extractor"
	"go-stream-download/internal/jobs"
	"go-stream-download/internal/preview"
	"go-stream-download/internal/server"
)

var listenFlag string

// serveCmd runs the HTTP service: preview, job submission, status polling and
// file retrieval.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the download service over HTTP",
	Long: `Starts the HTTP API. Downloads are accepted immediately and processed by a
bounded worker pool; clients poll job status and fetch finished files.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// retentionSweepInterval is how often terminal jobs past the retention window
// are evicted and their scratch directories removed.
const retentionSweepInterval = 10 * time.Minute

func runServe(cmd *cobra.Command, args []string) error {
	cfg := globalConfig
	if listenFlag != "" {
		cfg.ListenAddr = listenFlag
	}

	if cfg.AutoInstallExtractor {
		if _, err := ytdlp.Install(cmd.Context(), nil); err != nil {
			log.WithError(err).Warn("Could not install yt-dlp, relying on an existing binary in PATH")
		}
	}

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
	pool := jobs.NewPool(cfg.Workers)
	defer pool.Close()

	previews := preview.NewCache(client.Preview, time.Duration(cfg.PreviewTTLSec)*time.Second)

	srv := server.New(server.Options{
		Registry:     registry,
		Pool:         pool,
		Runner:       runner,
		Previews:     previews,
		DownloadsDir: cfg.DownloadsDir,
		FFmpegPath:   cfg.FFmpegPath,
		CookiesFile:  cfg.CookiesFile,
	})

	sweeperCtx, stopSweeper := context.WithCancel(cmd.Context())
	defer stopSweeper()
	go runRetentionSweeper(sweeperCtx, registry, runner, time.Duration(cfg.JobRetentionHours)*time.Hour)

	if ffmpegDir := extractor.LocateFFmpeg(cfg.FFmpegPath); ffmpegDir != "" {
		log.Infof("Using ffmpeg from %s", ffmpegDir)
	} else {
		log.Warn("No ffmpeg found, mp3 extraction and stream merging are disabled")
	}

	log.Infof("Listening on %s with %d workers, downloads in %s", cfg.ListenAddr, cfg.Workers, cfg.DownloadsDir)
	return srv.Router().Run(cfg.ListenAddr)
}

// runRetentionSweeper periodically evicts terminal jobs past the retention
// window and removes their leftover scratch directories.
func runRetentionSweeper(ctx context.Context, registry *jobs.Registry, runner *jobs.Runner, retention time.Duration) {
	ticker := time.NewTicker(retentionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range registry.EvictTerminal(retention) {
				workDir := runner.WorkDir(id)
				if err := os.RemoveAll(workDir); err != nil {
					log.WithError(err).Warnf("Could not remove %s", filepath.Base(workDir))
				}
			}
		}
	}
}
