package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "digest"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration and user preferences",
	Long: `Show or manage digest configuration.

Running bare 'digest config' is the same as 'digest config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configPromptCmd = &cobra.Command{
	Use:   "prompt [text]",
	Short: "Show or set the custom summarizer prompt",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := actingUser()
		if len(args) == 0 {
			if p := getPrefs().Prompt(user); p != "" {
				fmt.Fprintln(ui.Out, p)
			} else {
				ui.Info("No custom prompt set.")
			}
			return nil
		}
		getPrefs().SetPrompt(user, args[0])
		ui.Success("Custom prompt saved.")
		return nil
	},
}

var configKeywordsCmd = &cobra.Command{
	Use:   "keywords [keyword]...",
	Short: "Show or set digest filter keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		user := actingUser()
		if len(args) == 0 {
			if kws := getPrefs().Keywords(user); len(kws) > 0 {
				fmt.Fprintln(ui.Out, strings.Join(kws, ", "))
			} else {
				ui.Info("No filter keywords set.")
			}
			return nil
		}
		getPrefs().SetKeywords(user, args)
		ui.Success("Filter keywords saved: %s", strings.Join(args, ", "))
		return nil
	},
}

var configHoursCmd = &cobra.Command{
	Use:   "hours [n]",
	Short: "Show or set the default look-back window in hours",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := actingUser()
		if len(args) == 0 {
			fmt.Fprintf(ui.Out, "%d\n", getPrefs().Hours(user))
			return nil
		}
		hours, err := strconv.Atoi(args[0])
		if err != nil || hours <= 0 {
			return fmt.Errorf("hours must be a positive number, got %q", args[0])
		}
		getPrefs().SetHours(user, hours)
		ui.Success("Default look-back set to %d hours.", hours)
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all stored settings for the acting user",
	Long:  "Clear all stored settings for the acting user, including projects and tracked issues.",
	RunE: func(cmd *cobra.Command, args []string) error {
		user := actingUser()
		getPrefs().Clear(user)
		ui.Success("Cleared all settings for %s.", user)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPromptCmd)
	configCmd.AddCommand(configKeywordsCmd)
	configCmd.AddCommand(configHoursCmd)
	configCmd.AddCommand(configResetCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# digest configuration
# See: digest config show (for effective values and sources)

# Settings file holding per-user projects, issues, and preferences
# (default: ~/.config/digest/user_settings.json)
# settings_path: {{ .SettingsPath }}

# Default acting user id
# user: {{ .User }}

# Anthropic API (used by 'digest scan --summarize')
anthropic:
  api_key: "{{ .AnthropicAPIKey }}"
  model: "{{ .AnthropicModel }}"
`

type configTemplateData struct {
	SettingsPath    string
	User            string
	AnthropicAPIKey string
	AnthropicModel  string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	data := configTemplateData{
		SettingsPath:    viper.GetString("settings_path"),
		User:            viper.GetString("user"),
		AnthropicAPIKey: viper.GetString("anthropic.api_key"),
		AnthropicModel:  viper.GetString("anthropic.model"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "settings_path", EnvVar: "DIGEST_SETTINGS_PATH"},
	{Key: "user", EnvVar: "DIGEST_USER"},
	{Key: "anthropic.api_key", EnvVar: "DIGEST_ANTHROPIC_API_KEY"},
	{Key: "anthropic.model", EnvVar: "DIGEST_ANTHROPIC_MODEL"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		if k.Key == "anthropic.api_key" && val != "" {
			val = "****"
		}
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-22s %v  %s\n", k.Key, val, source)
	}

	user := actingUser()
	fmt.Fprintln(ui.Out)
	ui.Info("Preferences for %s:", user)
	prompt := "(none)"
	if getPrefs().Prompt(user) != "" {
		prompt = "(set)"
	}
	fmt.Fprintf(ui.Out, "  %-22s %s\n", "custom prompt", prompt)
	fmt.Fprintf(ui.Out, "  %-22s %s\n", "keywords", strings.Join(getPrefs().Keywords(user), ", "))
	fmt.Fprintf(ui.Out, "  %-22s %d\n", "default hours", getPrefs().Hours(user))

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}
