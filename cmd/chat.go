package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/meysamhadeli/gitai/constants/lipgloss"
	"github.com/meysamhadeli/gitai/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// chatCmd: gitai chat
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Hold a conversation about a project, each answer grounded in the files it reads.",
	Long: `The 'chat' subcommand starts an interactive session bound to one project. Every question runs
the smart chat pipeline inside the same conversation, so files read earlier are offered as context
for later questions. Type /help for the session commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		repo, _ := cmd.Flags().GetString("repo")
		path, _ := cmd.Flags().GetString("path")
		projectPath, err := rootDependencies.resolveProjectPath(cmd, repo, path)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			return
		}

		handleChatCommand(rootDependencies, projectPath)
	},
}

func init() {
	chatCmd.Flags().String("repo", "", "Name or path of a registered repository to chat about.")
	chatCmd.Flags().String("path", "", "Path of the project to chat about (default: working directory).")
	rootCmd.AddCommand(chatCmd)
}

type chatSession struct {
	deps           *RootDependencies
	projectPath    string
	conversationID string
}

func handleChatCommand(rootDependencies *RootDependencies, projectPath string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	session := &chatSession{
		deps:           rootDependencies,
		projectPath:    projectPath,
		conversationID: uuid.NewString(),
	}

	go utils.GracefulShutdown(ctx, cancel, func() {
		rootDependencies.Conversations.Delete(session.conversationID)
		rootDependencies.TokenManagement.ClearToken()
	})

	reader := bufio.NewReader(os.Stdin)

	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf("Project: %s\n/help  Help for chat subcommand", projectPath)))

	for {
		if ctx.Err() != nil {
			return
		}

		userInput, err := utils.InputPromptWithContext(ctx, reader)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, utils.ErrInputClosed) {
				fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
				return
			}
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			continue
		}

		if userInput == "" {
			continue
		}

		handled, exit := session.runCommand(userInput)
		if exit {
			return
		}
		if handled {
			continue
		}

		spinner, _ := newSpinner(pterm.FgCyan).Start(fmt.Sprintf("%s is reading the project...", rootDependencies.ChatProvider.Name()))
		result := rootDependencies.SmartChat.ProcessSmartChat(ctx, session.conversationID, projectPath, userInput)
		_ = spinner.Stop()
		fmt.Print("\r")

		printSmartChatResult(ctx, rootDependencies, result)
	}
}

// runCommand handles a slash command. It reports whether input was a command and whether
// the session should end.
func (s *chatSession) runCommand(command string) (bool, bool) {
	provider := s.deps.Config.AIProviderConfig.Provider
	model := s.deps.Config.AIProviderConfig.Model

	switch command {
	case "/help":
		helps := "/clear  Clear screen\n/exit  Exit from gitai\n/files  Files read in this conversation\n/new  Start a new conversation\n/token  Token information\n/live-token  Session token stats with details\n/clear-token  Clear token from session"
		fmt.Println(lipgloss.BoxStyle.Render(helps))
		return true, false
	case "/clear":
		fmt.Print("\033[2J\033[H")
		return true, false
	case "/exit":
		return false, true
	case "/files":
		fmt.Println(lipgloss.BoxStyle.Render(s.readHistory()))
		return true, false
	case "/new":
		s.deps.Conversations.Delete(s.conversationID)
		s.conversationID = uuid.NewString()
		fmt.Println(lipgloss.Green.Render("✔️ Started a new conversation."))
		return true, false
	case "/token":
		s.deps.TokenManagement.DisplayTokens(provider, model)
		return true, false
	case "/live-token":
		total, input, output := s.deps.TokenManagement.GetCurrentTokenUsage()
		cost := s.deps.TokenManagement.CalculateCost(provider, model, input, output)
		fmt.Printf("📊 Session Token Stats:\n")
		fmt.Printf("   Total: %d tokens (Input: %d, Output: %d)\n", total, input, output)
		fmt.Printf("   Cost: $%.6f\n", cost)
		fmt.Printf("   Model: %s\n", model)
		return true, false
	case "/clear-token":
		s.deps.TokenManagement.ClearToken()
		return true, false
	default:
		if strings.HasPrefix(command, "/") {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Unknown command %s, type /help", command)))
			return true, false
		}
		return false, false
	}
}

func (s *chatSession) readHistory() string {
	conversation, ok := s.deps.Conversations.Get(s.conversationID)
	if !ok {
		return "No files read in this conversation yet."
	}

	history := conversation.Tracker.GetReadHistory()
	if len(history) == 0 {
		return "No files read in this conversation yet."
	}

	paths := make([]string, 0, len(history))
	for path := range history {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var sb strings.Builder
	sb.WriteString("Files read in this conversation:")
	for _, path := range paths {
		entry := history[path]
		sb.WriteString(fmt.Sprintf("\n  %s  %s", path, lipgloss.Gray.Render(entry.Timestamp.Format("15:04:05"))))
	}
	return sb.String()
}
