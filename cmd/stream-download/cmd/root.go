package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-stream-download/internal/config"
	"go-stream-download/internal/helpers"
)

// cfgFile holds the path to the config file specified by the user
var cfgFile string

// globalConfig holds the loaded configuration
var globalConfig config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stream-download",
	Short: "A service and CLI for downloading media from streaming sites",
	Long: `Stream Download fetches video or audio from streaming platforms through
yt-dlp, either as a long-running HTTP service or as one-shot CLI downloads.`,
	PersistentPreRunE: loadGlobalConfig,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.toml", "Configuration file path")
	rootCmd.PersistentFlags().String("downloads-dir", "", "Directory to save finished files (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().Int("workers", 0, "Number of concurrent download workers (overrides config)")

	viper.BindPFlag("downloads_dir", rootCmd.PersistentFlags().Lookup("downloads-dir"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
}

// loadGlobalConfig loads the configuration, applies flag overrides and sets
// the logging level before any command runs.
func loadGlobalConfig(cmd *cobra.Command, args []string) error {
	var err error
	globalConfig, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	if v := viper.GetString("downloads_dir"); v != "" {
		globalConfig.DownloadsDir = v
		log.Debugf("Overriding downloads dir from flag: %s", v)
	}
	if v := viper.GetString("log_level"); v != "" {
		globalConfig.LogLevel = v
	}
	if v := viper.GetInt("workers"); v > 0 {
		globalConfig.Workers = v
		log.Debugf("Overriding worker count from flag: %d", v)
	}

	level, err := log.ParseLevel(globalConfig.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if !helpers.CheckAndMakeDir(globalConfig.DownloadsDir) {
		return fmt.Errorf("could not create downloads directory %s", globalConfig.DownloadsDir)
	}
	return nil
}
