package main

import (
	"fmt"
	"os"

	"collablist/config"
	"collablist/internal/tui"
	"collablist/pkg/listsync"
	"collablist/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var (
	clientCfg *config.ClientConfig
	logFile   *os.File

	flagAppID      string
	flagStoreURL   string
	flagToken      string
	flagCollection string
	flagLogFile    string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "jukebox",
	Short: "Collaborative real-time list in the terminal",
	Long: `jukebox lets several people append to a shared list and watch it change live.

Usage:
  jukebox                                      Open the interactive screen
  jukebox add movie=Up "song=Married Life"     Append one entry
  jukebox list                                 Print the list once
  jukebox watch                                Print the list on every change

Configuration comes from the environment (APP_ID, STORE_CONFIG,
INITIAL_AUTH_TOKEN, COLLECTION, LOG_FILE, LOG_LEVEL) and may be
overridden with flags.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Log.Sync()
		if logFile != nil {
			logFile.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		lsCfg, err := clientCfg.ListSync()
		if err != nil {
			return err
		}
		ctrl := listsync.NewController(lsCfg, clientCfg.Collection)
		return tui.Run(cmd.Context(), ctrl)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagAppID, "app-id", "", "application id (env APP_ID)")
	flags.StringVar(&flagStoreURL, "store-url", "", "store base URL, replaces STORE_CONFIG")
	flags.StringVar(&flagToken, "token", "", "pre-issued auth token (env INITIAL_AUTH_TOKEN)")
	flags.StringVarP(&flagCollection, "collection", "c", "", "collection name: movie_jukebox or products (env COLLECTION)")
	flags.StringVar(&flagLogFile, "log-file", "", "log file (env LOG_FILE)")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level (env LOG_LEVEL)")
}

// setup resolves configuration once and points the logger at a file, since
// stdout belongs to the list output.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	clientCfg = cfg

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		logger.InitWithWriter(zapcore.AddSync(f), cfg.LogLevel)
	}
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.ClientConfig) {
	flags := cmd.Flags()
	if flags.Changed("app-id") {
		cfg.AppID = flagAppID
	}
	if flags.Changed("store-url") {
		cfg.StoreConfig = fmt.Sprintf(`{"url":%q}`, flagStoreURL)
	}
	if flags.Changed("token") {
		cfg.AuthToken = flagToken
	}
	if flags.Changed("collection") {
		cfg.Collection = flagCollection
	}
	if flags.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
}
