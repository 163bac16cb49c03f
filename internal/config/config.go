package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config holds every tunable of the service. Values come from defaults, then
// an optional TOML file, then environment overrides, in that order.
type Config struct {
	ListenAddr           string `toml:"listen_addr"`
	DownloadsDir         string `toml:"downloads_dir"`
	CookiesFile          string `toml:"cookies_file"`
	FFmpegPath           string `toml:"ffmpeg_path"`
	Workers              int    `toml:"workers"`
	PreviewTTLSec        int    `toml:"preview_ttl_sec"`
	JobRetentionHours    int    `toml:"job_retention_hours"`
	UserAgent            string `toml:"user_agent"`
	AcceptLanguage       string `toml:"accept_language"`
	LogLevel             string `toml:"log_level"`
	VerboseExtractorLogs bool   `toml:"verbose_extractor_logs"`
	AutoInstallExtractor bool   `toml:"auto_install_extractor"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ListenAddr:           ":8000",
		DownloadsDir:         "downloads",
		Workers:              2,
		PreviewTTLSec:        180,
		JobRetentionHours:    24,
		UserAgent:            "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		AcceptLanguage:       "ro-RO,ro;q=0.9,en-US;q=0.8,en;q=0.7",
		LogLevel:             "info",
		AutoInstallExtractor: true,
	}
}

// Load builds the effective configuration. A missing config file is fine;
// a present but malformed one is an error.
func Load(path string) (Config, error) {
	// Local .env files are a convenience for development, ignore their absence.
	_ = godotenv.Load()

	cfg := Defaults()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "parsing %s", path)
		}
		log.Debugf("Loaded configuration from %s", path)
	}

	if v := os.Getenv("STREAMDL_COOKIES_FILE"); v != "" {
		cfg.CookiesFile = v
	}
	if v := os.Getenv("STREAMDL_FFMPEG_PATH"); v != "" {
		cfg.FFmpegPath = v
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DownloadsDir == "" {
		return errors.New("downloads_dir must not be empty")
	}
	if c.Workers < 1 {
		log.Warnf("workers = %d is below the minimum, clamping to 1", c.Workers)
		c.Workers = 1
	}
	if c.PreviewTTLSec < 1 {
		return errors.Errorf("preview_ttl_sec must be positive, got %d", c.PreviewTTLSec)
	}
	if c.JobRetentionHours < 1 {
		return errors.Errorf("job_retention_hours must be positive, got %d", c.JobRetentionHours)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "log_level %q", c.LogLevel)
	}
	return nil
}
