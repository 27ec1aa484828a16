package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/verifact/internal/model"
	"github.com/ppiankov/verifact/internal/store"
)

// Version is stamped at build time with -ldflags
var Version = "v0.1.0"

var (
	cfgFile   string
	verbose   bool
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "verifact",
	Short: "verifact - claim detection, evidence retrieval and verdicts",
	Long: `verifact ingests free text, detects checkable factual claims, retrieves
evidence from fact-check, news and reference sources, and records an
evidence-grounded verdict with a harm score.

Similar claims are indexed by embedding and grouped into trending clusters
for operator review. Verdicts only ever cite sources that were retrieved.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps a command error onto the process exit status:
// 0 on success, 2 when a record was not found, 1 otherwise
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, store.ErrNotFound):
		return 2
	default:
		return 1
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("verifact %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.verifact/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (overrides log.format)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// homeDir returns ~/.verifact, or "." when the home directory is unknown
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".verifact")
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(homeDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// VERIFACT_LLM_PROVIDER overrides llm.provider, and so on
	viper.SetEnvPrefix("VERIFACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := registerDefaults(model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering config defaults: %v\n", err)
	}
	for _, key := range []string{
		"llm.api_key", "llm.base_url",
		"embedding.api_key", "embedding.base_url",
		"evidence.factcheck_api_key", "evidence.news_api_key",
		"redis.password",
		"http.http_proxy", "http.https_proxy", "http.no_proxy",
	} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults teaches viper every configuration key so that environment
// variables are honoured by Unmarshal even when no config file sets them
func registerDefaults(cfg model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	setDefaults("", tree)
	return nil
}

func setDefaults(prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			setDefaults(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// loadConfig resolves the effective configuration: flags and environment over
// the config file over built-in defaults
func loadConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyProviderEnv(&cfg)

	base := homeDir()
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(base, "verifact.db")
	}
	switch cfg.Index.Path {
	case "":
		cfg.Index.Path = filepath.Join(base, "index")
	case ":memory:":
		cfg.Index.Path = ""
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(base, "cache")
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// applyProviderEnv fills credentials from the conventional provider variables
func applyProviderEnv(cfg *model.Config) {
	providerKey := func(provider string) string {
		switch provider {
		case "openai":
			return os.Getenv("OPENAI_API_KEY")
		case "anthropic", "claude":
			return os.Getenv("ANTHROPIC_API_KEY")
		}
		return ""
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKey(cfg.LLM.Provider)
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = providerKey(cfg.Embedding.Provider)
	}
	if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
		if cfg.LLM.Provider == "ollama" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = base
		}
		if cfg.Embedding.Provider == "ollama" && cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = base
		}
	}
	if cfg.Evidence.NewsAPIKey == "" {
		cfg.Evidence.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	}
	if cfg.Evidence.FactCheckAPIKey == "" {
		cfg.Evidence.FactCheckAPIKey = os.Getenv("GOOGLE_FACTCHECK_API_KEY")
	}
}

// newLogger builds the root logger on stderr
func newLogger(cfg model.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
