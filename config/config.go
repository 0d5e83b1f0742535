package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meysamhadeli/gitai/providers"
	"github.com/meysamhadeli/gitai/smart_conversation"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	SelectorHeuristic = "heuristic"
	SelectorAI        = "ai"

	// MaxShortlistLimit is the upper bound for the ranked shortlist.
	MaxShortlistLimit = 8
)

// Config represents the structure of the configuration file
type Config struct {
	Version          string                      `mapstructure:"version"`
	Theme            string                      `mapstructure:"theme"`
	LogLevel         string                      `mapstructure:"log_level"`
	EnableCache      bool                        `mapstructure:"enable_cache"`
	CacheDir         string                      `mapstructure:"cache_dir"`
	DatabasePath     string                      `mapstructure:"database_path"`
	Selector         string                      `mapstructure:"selector"`
	MaxShortlist     int                         `mapstructure:"max_shortlist"`
	MaxTreeDepth     int                         `mapstructure:"max_tree_depth"`
	Conversation     *ConversationConfig         `mapstructure:"conversation"`
	Server           *ServerConfig               `mapstructure:"server"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config"`
}

// ConversationConfig bounds the in-memory conversation contexts.
type ConversationConfig struct {
	MaxConversations int           `mapstructure:"max_conversations"`
	TTL              time.Duration `mapstructure:"ttl"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// ConfigError describes an invalid or missing configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %q: %s", e.Field, e.Message)
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:      "1.0.0",
	Theme:        "dracula",
	LogLevel:     "info",
	EnableCache:  true,
	CacheDir:     ".cache",
	DatabasePath: "",
	Selector:     SelectorHeuristic,
	MaxShortlist: MaxShortlistLimit,
	MaxTreeDepth: 10,
	Conversation: &ConversationConfig{
		MaxConversations: smart_conversation.DefaultMaxConversations,
		TTL:              smart_conversation.DefaultConversationTTL,
	},
	Server: &ServerConfig{
		Addr: "127.0.0.1:8000",
	},
	AIProviderConfig: &providers.AIProviderConfig{
		Provider:   "openai",
		BaseURL:    "",
		Model:      "gpt-4o-mini",
		ApiKey:     "",
		ApiVersion: "",
		Timeout:    2 * time.Minute,
	},
}

// binding ties one configuration key to its environment variables and CLI flag.
// Environment variables are consulted in order; the first one set wins.
type binding struct {
	key  string
	envs []string
	flag string
}

var bindings = []binding{
	{key: "theme", envs: []string{"GITAI_THEME"}, flag: "theme"},
	{key: "log_level", envs: []string{"GITAI_LOG_LEVEL"}, flag: "log_level"},
	{key: "enable_cache", envs: []string{"GITAI_ENABLE_CACHE"}, flag: "enable_cache"},
	{key: "cache_dir", envs: []string{"GITAI_CACHE_DIR"}, flag: "cache_dir"},
	{key: "database_path", envs: []string{"GITAI_DATABASE_PATH"}, flag: "database_path"},
	{key: "selector", envs: []string{"GITAI_SELECTOR"}, flag: "selector"},
	{key: "max_shortlist", envs: []string{"GITAI_MAX_SHORTLIST"}, flag: "max_shortlist"},
	{key: "max_tree_depth", envs: []string{"GITAI_MAX_TREE_DEPTH"}, flag: "max_tree_depth"},
	{key: "conversation.max_conversations", envs: []string{"GITAI_MAX_CONVERSATIONS"}},
	{key: "conversation.ttl", envs: []string{"GITAI_CONVERSATION_TTL"}},
	{key: "server.addr", envs: []string{"GITAI_SERVER_ADDR"}, flag: "addr"},
	{key: "ai_provider_config.provider", envs: []string{"GITAI_PROVIDER", "AI_PROVIDER"}, flag: "provider"},
	{key: "ai_provider_config.base_url", envs: []string{"GITAI_BASE_URL", "AI_BASE_URL"}, flag: "base_url"},
	{key: "ai_provider_config.model", envs: []string{"GITAI_MODEL", "AI_MODEL"}, flag: "model"},
	{key: "ai_provider_config.api_key", envs: []string{"GITAI_API_KEY", "AI_API_KEY"}, flag: "api_key"},
	{key: "ai_provider_config.api_version", envs: []string{"GITAI_API_VERSION", "AI_API_VERSION"}, flag: "api_version"},
	{key: "ai_provider_config.timeout", envs: []string{"GITAI_TIMEOUT"}, flag: "timeout"},
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs builds the configuration once at startup.
//
// Precedence, highest first: explicitly set CLI flags, the config file
// (--config, or gitai-config.{yaml,yml,json} in cwd), environment variables, defaults.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	configFile := cfgFile
	if configFile == "" {
		configFile = findConfigFile(cwd)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if fileType := GetConfigFileType(configFile); fileType != "" {
			v.SetConfigType(fileType)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	var flags flagLookup
	if rootCmd != nil {
		flags = rootCmd.PersistentFlags().Lookup
		bindFlags(v, rootCmd)
	}

	applyEnv(v, flags)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", DefaultConfig.Version)
	v.SetDefault("theme", DefaultConfig.Theme)
	v.SetDefault("log_level", DefaultConfig.LogLevel)
	v.SetDefault("enable_cache", DefaultConfig.EnableCache)
	v.SetDefault("cache_dir", DefaultConfig.CacheDir)
	v.SetDefault("database_path", DefaultConfig.DatabasePath)
	v.SetDefault("selector", DefaultConfig.Selector)
	v.SetDefault("max_shortlist", DefaultConfig.MaxShortlist)
	v.SetDefault("max_tree_depth", DefaultConfig.MaxTreeDepth)
	v.SetDefault("conversation.max_conversations", DefaultConfig.Conversation.MaxConversations)
	v.SetDefault("conversation.ttl", DefaultConfig.Conversation.TTL)
	v.SetDefault("server.addr", DefaultConfig.Server.Addr)
	v.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	v.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	v.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	v.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.ApiKey)
	v.SetDefault("ai_provider_config.api_version", DefaultConfig.AIProviderConfig.ApiVersion)
	v.SetDefault("ai_provider_config.timeout", DefaultConfig.AIProviderConfig.Timeout)
}

type flagLookup func(name string) *pflag.Flag

// applyEnv copies environment variables into keys the config file did not set
// and no explicit flag overrides.
func applyEnv(v *viper.Viper, flags flagLookup) {
	for _, b := range bindings {
		if v.InConfig(b.key) {
			continue
		}
		if flags != nil && b.flag != "" {
			if f := flags(b.flag); f != nil && f.Changed {
				continue
			}
		}
		for _, env := range b.envs {
			if value, ok := os.LookupEnv(env); ok && value != "" {
				v.Set(b.key, value)
				break
			}
		}
	}
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) {
	for _, b := range bindings {
		if b.flag == "" {
			continue
		}
		if f := rootCmd.PersistentFlags().Lookup(b.flag); f != nil {
			_ = v.BindPFlag(b.key, f)
		}
	}
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set customize theme for rendering answers (e.g., 'dracula', 'monokai', 'github').")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.LogLevel, "Log level for pipeline diagnostics: 'debug', 'info', 'warn', 'error' or 'quiet'.")
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Enable or disable the file read cache.")
	rootCmd.PersistentFlags().String("cache_dir", DefaultConfig.CacheDir, "Directory holding the read cache database.")
	rootCmd.PersistentFlags().String("database_path", DefaultConfig.DatabasePath, "Path of the repository registry database (default: ~/.gitai/repositories.db).")
	rootCmd.PersistentFlags().String("selector", DefaultConfig.Selector, "File selection strategy: 'heuristic' (keyword ranking) or 'ai' (model-selected files).")
	rootCmd.PersistentFlags().Int("max_shortlist", DefaultConfig.MaxShortlist, "Maximum number of files read per question (1-8).")
	rootCmd.PersistentFlags().Int("max_tree_depth", DefaultConfig.MaxTreeDepth, "Maximum directory depth scanned when building the file tree.")
	rootCmd.PersistentFlags().String("addr", DefaultConfig.Server.Addr, "Listen address for the 'serve' command.")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	// AI Provider configuration
	rootCmd.PersistentFlags().String("provider", DefaultConfig.AIProviderConfig.Provider, "The name of the AI provider (e.g., 'openai', 'anthropic', 'gemini', 'deepseek', 'moonshot', 'ollama').")
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "The base URL of the AI provider (empty uses the provider default).")
	rootCmd.PersistentFlags().String("model", DefaultConfig.AIProviderConfig.Model, "The name of the model used for chat completions, such as 'gpt-4o-mini'.")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.AIProviderConfig.ApiKey, "The API key used to authenticate with the AI service provider.")
	rootCmd.PersistentFlags().String("api_version", DefaultConfig.AIProviderConfig.ApiVersion, "The API version sent to providers that require one.")
	rootCmd.PersistentFlags().Duration("timeout", DefaultConfig.AIProviderConfig.Timeout, "Network timeout for a single AI request.")
}

// Validate reports the first invalid value in the configuration.
func (c *Config) Validate() error {
	switch c.Selector {
	case SelectorHeuristic, SelectorAI:
	default:
		return &ConfigError{Field: "selector", Message: fmt.Sprintf("must be %q or %q, got %q", SelectorHeuristic, SelectorAI, c.Selector)}
	}

	if c.MaxShortlist < 1 || c.MaxShortlist > MaxShortlistLimit {
		return &ConfigError{Field: "max_shortlist", Message: fmt.Sprintf("must be between 1 and %d", MaxShortlistLimit)}
	}

	if c.MaxTreeDepth < 1 {
		return &ConfigError{Field: "max_tree_depth", Message: "must be positive"}
	}

	if c.Conversation == nil || c.Conversation.MaxConversations < 1 {
		return &ConfigError{Field: "conversation.max_conversations", Message: "must be positive"}
	}

	if c.Conversation.TTL < 0 {
		return &ConfigError{Field: "conversation.ttl", Message: "must not be negative"}
	}

	if c.AIProviderConfig == nil {
		return &ConfigError{Field: "ai_provider_config", Message: "is required"}
	}

	if _, ok := providers.LookupProvider(c.AIProviderConfig.Provider); !ok {
		return &ConfigError{Field: "ai_provider_config.provider", Message: fmt.Sprintf("unsupported provider %q", c.AIProviderConfig.Provider)}
	}

	return nil
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}

// findConfigFile looks for gitai-config.{yaml,yml,json} in cwd only.
func findConfigFile(cwd string) string {
	for _, name := range []string{"gitai-config.yaml", "gitai-config.yml", "gitai-config.json"} {
		path := filepath.Join(cwd, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
