package cmd

import (
	"fmt"
	"os"

	"github.com/meysamhadeli/gitai/constants/lipgloss"
	"github.com/meysamhadeli/gitai/mcp_server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the smart chat pipeline as MCP tools over stdio.",
	Long: `The 'mcp' subcommand runs a Model Context Protocol server on stdin and stdout with the tools
smart_chat, read_project_file and list_project_files. Logs go to stderr.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		srv := mcp_server.NewServer(
			rootDependencies.Config.Version,
			rootDependencies.SmartChat,
			rootDependencies.FileAccess,
			rootDependencies.Logger,
		)
		if err := srv.ServeStdio(); err != nil {
			fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
