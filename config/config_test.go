package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meysamhadeli/gitai/smart_conversation"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigs_Defaults(t *testing.T) {
	cfg, err := LoadConfigs(nil, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, SelectorHeuristic, cfg.Selector)
	assert.Equal(t, MaxShortlistLimit, cfg.MaxShortlist)
	assert.Equal(t, "openai", cfg.AIProviderConfig.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.AIProviderConfig.Model)
	assert.Equal(t, 2*time.Hour, cfg.Conversation.TTL)
	assert.Equal(t, smart_conversation.DefaultConversationTTL, cfg.Conversation.TTL)
	assert.Equal(t, smart_conversation.DefaultMaxConversations, cfg.Conversation.MaxConversations)
}

func TestLoadConfigs_FileBeatsEnvironment(t *testing.T) {
	cwd := t.TempDir()
	content := []byte("selector: ai\nai_provider_config:\n  provider: anthropic\n  model: claude-3-5-sonnet-20241022\n")
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "gitai-config.yaml"), content, 0644))

	t.Setenv("AI_PROVIDER", "deepseek")
	t.Setenv("AI_API_KEY", "env-key")

	cfg, err := LoadConfigs(nil, cwd)
	require.NoError(t, err)

	assert.Equal(t, SelectorAI, cfg.Selector)
	assert.Equal(t, "anthropic", cfg.AIProviderConfig.Provider)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.AIProviderConfig.Model)
	// not present in the file, so the environment applies
	assert.Equal(t, "env-key", cfg.AIProviderConfig.ApiKey)
}

func TestLoadConfigs_JSONFile(t *testing.T) {
	cwd := t.TempDir()
	content := []byte(`{"max_shortlist": 4, "conversation": {"max_conversations": 10, "ttl": "30m"}}`)
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "gitai-config.json"), content, 0644))

	cfg, err := LoadConfigs(nil, cwd)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.MaxShortlist)
	assert.Equal(t, 10, cfg.Conversation.MaxConversations)
	assert.Equal(t, 30*time.Minute, cfg.Conversation.TTL)
}

func TestLoadConfigs_FlagsBeatFile(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, "gitai-config.yaml"), []byte("ai_provider_config:\n  model: from-file\n"), 0644))

	cmd := &cobra.Command{Use: "gitai"}
	InitFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Set("model", "from-flag"))

	cfg, err := LoadConfigs(cmd, cwd)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.AIProviderConfig.Model)
}

func TestLoadConfigs_InvalidSelector(t *testing.T) {
	t.Setenv("GITAI_SELECTOR", "random")

	_, err := LoadConfigs(nil, t.TempDir())
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "selector", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig
	cfg.MaxShortlist = 9
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig
	assert.NoError(t, cfg.Validate())

	provider := *DefaultConfig.AIProviderConfig
	provider.Provider = "unknown"
	cfg.AIProviderConfig = &provider
	assert.Error(t, cfg.Validate())
}

func TestGetConfigFileType(t *testing.T) {
	assert.Equal(t, "json", GetConfigFileType("gitai-config.json"))
	assert.Equal(t, "yaml", GetConfigFileType("gitai-config.yml"))
	assert.Equal(t, "yaml", GetConfigFileType("a/b/gitai-config.yaml"))
	assert.Equal(t, "", GetConfigFileType("gitai-config.toml"))
}
