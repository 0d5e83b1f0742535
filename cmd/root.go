package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meysamhadeli/gitai/code_analyzer"
	analyzer_contracts "github.com/meysamhadeli/gitai/code_analyzer/contracts"
	"github.com/meysamhadeli/gitai/config"
	"github.com/meysamhadeli/gitai/constants/lipgloss"
	"github.com/meysamhadeli/gitai/logging"
	"github.com/meysamhadeli/gitai/project_files"
	file_contracts "github.com/meysamhadeli/gitai/project_files/contracts"
	"github.com/meysamhadeli/gitai/providers"
	provider_contracts "github.com/meysamhadeli/gitai/providers/contracts"
	"github.com/meysamhadeli/gitai/repository"
	repo_contracts "github.com/meysamhadeli/gitai/repository/contracts"
	"github.com/meysamhadeli/gitai/smart_conversation"
	chat_contracts "github.com/meysamhadeli/gitai/smart_conversation/contracts"
	"github.com/meysamhadeli/gitai/token_management"
	token_contracts "github.com/meysamhadeli/gitai/token_management/contracts"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootDependencies holds everything a subcommand needs, built once from the loaded config.
type RootDependencies struct {
	Config          *config.Config
	Cwd             string
	Logger          *zap.Logger
	TokenManagement token_contracts.ITokenManagement
	ChatProvider    provider_contracts.IChatAIProvider
	CacheManager    *code_analyzer.CacheManager
	Analyzer        analyzer_contracts.ICodeAnalyzer
	FileAccess      file_contracts.IFileAccess
	Selector        chat_contracts.IFileSelector
	Conversations   *smart_conversation.ConversationStore
	SmartChat       chat_contracts.ISmartChat
}

var rootCmd = &cobra.Command{
	Use:   "gitai",
	Short: "Ask questions about local Git repositories and get answers grounded in their files.",
	Long: `gitai selects the files of a local repository that matter for a question, reads them and
asks the configured AI provider for an answer based on their contents. Use 'ask' for a single
question, 'chat' for a conversation, or 'serve' and 'mcp' to expose the same pipeline to other tools.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func defaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".gitai", "repositories.db"), nil
}

// handleRootCommand loads the configuration and builds the dependencies. It prints the
// error and returns nil when something cannot be initialized.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	deps, err := buildRootDependencies(cmd)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return nil
	}
	return deps
}

func buildRootDependencies(cmd *cobra.Command) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadConfigs(cmd.Root(), cwd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	deps := &RootDependencies{
		Config:          cfg,
		Cwd:             cwd,
		Logger:          logger,
		TokenManagement: token_management.NewTokenManager(),
	}

	deps.ChatProvider, err = providers.NewChatProvider(cfg.AIProviderConfig, deps.TokenManagement, logger)
	if err != nil {
		return nil, err
	}

	var contentCache file_contracts.IContentCache
	if cfg.EnableCache {
		cacheDir := cfg.CacheDir
		if !filepath.IsAbs(cacheDir) {
			cacheDir = filepath.Join(cwd, cacheDir)
		}
		deps.CacheManager, err = code_analyzer.NewCacheManager(cacheDir)
		if err != nil {
			logger.Warn("read cache disabled", zap.Error(err))
		} else {
			contentCache = deps.CacheManager
		}
	}

	deps.Analyzer = code_analyzer.NewCodeAnalyzer(deps.CacheManager, logger)
	deps.FileAccess = project_files.NewProjectFiles(contentCache, logger)

	switch cfg.Selector {
	case config.SelectorAI:
		deps.Selector = smart_conversation.NewAISelector(deps.ChatProvider, deps.Analyzer, cfg.MaxShortlist, logger)
	default:
		deps.Selector = smart_conversation.NewHeuristicSelector(cfg.MaxShortlist, logger)
	}

	deps.Conversations = smart_conversation.NewConversationStore(cfg.Conversation.MaxConversations, cfg.Conversation.TTL)
	deps.SmartChat = smart_conversation.NewSmartConversationManager(smart_conversation.ManagerOptions{
		Selector:     deps.Selector,
		FileAccess:   deps.FileAccess,
		Synthesizer:  smart_conversation.NewResponseSynthesizer(deps.ChatProvider, logger),
		Store:        deps.Conversations,
		MaxTreeDepth: cfg.MaxTreeDepth,
		Logger:       logger,
	})

	return deps, nil
}

// OpenRepositories opens the repository registry configured by database_path.
func (d *RootDependencies) OpenRepositories() (repo_contracts.IRepositoryStore, error) {
	dbPath := d.Config.DatabasePath
	if dbPath == "" {
		var err error
		if dbPath, err = defaultDatabasePath(); err != nil {
			return nil, err
		}
	}
	return repository.OpenRepositoryStore(dbPath, d.Logger)
}

// Close releases the cache database and flushes the logger.
func (d *RootDependencies) Close() {
	if d.CacheManager != nil {
		if err := d.CacheManager.Close(); err != nil {
			d.Logger.Warn("failed to close cache", zap.Error(err))
		}
	}
	_ = d.Logger.Sync()
}

// resolveProjectPath picks the project for a command: a registered repository when repo is
// set, otherwise path, otherwise the working directory.
func (d *RootDependencies) resolveProjectPath(cmd *cobra.Command, repo string, path string) (string, error) {
	if repo == "" {
		if path == "" {
			path = d.Cwd
		}
		return project_files.ValidateProjectPath(path)
	}

	repositories, err := d.OpenRepositories()
	if err != nil {
		return "", err
	}
	defer repositories.Close()

	registered, err := repositories.Resolve(cmd.Context(), repo)
	if err != nil {
		return "", err
	}
	if err := repositories.Touch(cmd.Context(), registered.LocalPath); err != nil {
		d.Logger.Debug("failed to update last access", zap.Error(err))
	}
	return registered.LocalPath, nil
}
