package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/meysamhadeli/gitai/constants/lipgloss"
	"github.com/meysamhadeli/gitai/smart_conversation/models"
	"github.com/meysamhadeli/gitai/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question about a project and print an answer grounded in its files.",
	Long: `The 'ask' subcommand selects the files of the project that matter for the question, reads
them and asks the configured AI provider for an answer. The project is the working directory
unless --path or --repo is given. Pass --conversation to continue an earlier conversation.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		if err := handleAskCommand(cmd, rootDependencies, strings.Join(args, " ")); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
	},
}

func init() {
	askCmd.Flags().String("repo", "", "Name or path of a registered repository to ask about.")
	askCmd.Flags().String("path", "", "Path of the project to ask about (default: working directory).")
	askCmd.Flags().String("conversation", "", "Conversation id to continue.")
	askCmd.Flags().StringP("format", "f", formatText, "Output format: 'text', 'json' or 'yaml'.")
	rootCmd.AddCommand(askCmd)
}

func handleAskCommand(cmd *cobra.Command, rootDependencies *RootDependencies, question string) error {
	repo, _ := cmd.Flags().GetString("repo")
	path, _ := cmd.Flags().GetString("path")
	conversationID, _ := cmd.Flags().GetString("conversation")
	format, _ := cmd.Flags().GetString("format")

	if err := validateFormat(format); err != nil {
		return err
	}

	projectPath, err := rootDependencies.resolveProjectPath(cmd, repo, path)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if format != formatText {
		result := rootDependencies.SmartChat.ProcessSmartChat(ctx, conversationID, projectPath, question)
		return printStructured(format, result)
	}

	spinner, _ := newSpinner(pterm.FgCyan).Start("Selecting and reading project files...")
	result := rootDependencies.SmartChat.ProcessSmartChat(ctx, conversationID, projectPath, question)
	_ = spinner.Stop()
	fmt.Print("\r")

	printSmartChatResult(ctx, rootDependencies, result)
	return nil
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use text, json or yaml", format)
	}
}

func newSpinner(color pterm.Color) *pterm.SpinnerPrinter {
	return pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(color)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).
		WithRemoveWhenDone(true)
}

func printStructured(format string, value any) error {
	switch format {
	case formatYAML:
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(value)
	default:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	}
}

// filesSummary lists the files read for an answer, one per line.
func filesSummary(result *models.SmartChatResult) string {
	if len(result.ToolCalls) == 0 {
		return "No project files were read."
	}

	var sb strings.Builder
	sb.WriteString("Files read:")
	for _, call := range result.ToolCalls {
		sb.WriteString(fmt.Sprintf("\n  %s", call.Result.FilePath))
		if call.Arguments.FilePath != call.Result.FilePath {
			sb.WriteString(fmt.Sprintf(" (requested %s)", call.Arguments.FilePath))
		}
		if call.Reason != "" {
			sb.WriteString(fmt.Sprintf("  %s", lipgloss.Gray.Render(call.Reason)))
		}
	}
	return sb.String()
}

func printSmartChatResult(ctx context.Context, rootDependencies *RootDependencies, result *models.SmartChatResult) {
	if result.State == models.StateFailed {
		fmt.Println(lipgloss.Red.Render(result.Response))
		return
	}

	if err := utils.RenderAnswer(ctx, os.Stdout, result.Response, rootDependencies.Config.Theme); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error rendering answer: %v", err)))
	}

	fmt.Println(lipgloss.BoxStyle.Render(filesSummary(result)))
	fmt.Println(lipgloss.Gray.Render("conversation: " + result.ConversationID))
	rootDependencies.TokenManagement.DisplayTokens(
		rootDependencies.Config.AIProviderConfig.Provider,
		rootDependencies.Config.AIProviderConfig.Model,
	)
}
