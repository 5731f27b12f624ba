package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"digest/internal/issues"
	"digest/internal/output"
	"digest/internal/prefs"
	"digest/internal/projects"
	"digest/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui       *output.UI
	settings *store.FileStore

	verbose bool

	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   "digest",
	Short: "Chat digest engine - detect and track technical issues",
	Long: `digest analyzes batches of chat messages, detects technical issues
by keyword, tracks them with full status history, and scopes analysis
through per-user project configurations. Optionally summarizes message
batches into short bullet digests via the Anthropic API.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/digest/config.yaml)")
	rootCmd.PersistentFlags().StringP("user", "u", "", "Acting user id (default from config)")

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "digest")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DIGEST")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "digest")

	viper.SetDefault("settings_path", filepath.Join(defaultConfigDir, "user_settings.json"))
	viper.SetDefault("user", "default")
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
}

// getSettings returns the shared file store, loading it on first call.
func getSettings() *store.FileStore {
	if settings != nil {
		return settings
	}
	settings = store.Open(viper.GetString("settings_path"), slog.Default())
	return settings
}

func getTracker() *issues.Tracker {
	return issues.New(getSettings(), slog.Default())
}

func getRegistry() *projects.Registry {
	return projects.New(getSettings(), slog.Default())
}

func getPrefs() *prefs.Manager {
	return prefs.New(getSettings(), slog.Default())
}

// actingUser resolves the user id for the current invocation: --user
// flag first, then the configured default.
func actingUser() string {
	if u, _ := rootCmd.PersistentFlags().GetString("user"); u != "" {
		return u
	}
	return viper.GetString("user")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(ui.Out, "digest %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
	},
}
