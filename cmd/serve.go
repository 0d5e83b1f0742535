package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/gitai/constants/lipgloss"
	"github.com/meysamhadeli/gitai/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the smart chat pipeline over HTTP.",
	Long: `The 'serve' subcommand exposes smart chat, project trees, file reads, the repository registry
and Prometheus metrics over HTTP on the address set by --addr.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		if err := handleServeCommand(rootDependencies); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func handleServeCommand(rootDependencies *RootDependencies) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	repositories, err := rootDependencies.OpenRepositories()
	if err != nil {
		rootDependencies.Logger.Warn("repository registry unavailable", zap.Error(err))
		repositories = nil
	} else {
		defer repositories.Close()
	}

	srv := server.NewServer(server.Options{
		Chat:         rootDependencies.SmartChat,
		FileAccess:   rootDependencies.FileAccess,
		Repositories: repositories,
		MaxTreeDepth: rootDependencies.Config.MaxTreeDepth,
		Logger:       rootDependencies.Logger,
	})

	addr := rootDependencies.Config.Server.Addr
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("🚀 Listening on http://%s", addr)))
	return srv.ListenAndServe(ctx, addr)
}
