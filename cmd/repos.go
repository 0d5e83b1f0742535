package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/meysamhadeli/gitai/constants/lipgloss"
	"github.com/meysamhadeli/gitai/project_files"
	"github.com/meysamhadeli/gitai/repository/models"
	"github.com/meysamhadeli/gitai/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Manage the registry of local repositories.",
	Long: `The 'repos' subcommand keeps a registry of local checkouts so other commands can refer to
them by name with --repo.`,
}

var reposAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Register a local repository (default: working directory).",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runReposCommand(cmd, func(ctx context.Context, rootDependencies *RootDependencies) error {
			path := rootDependencies.Cwd
			if len(args) == 1 {
				path = args[0]
			}
			name, _ := cmd.Flags().GetString("name")
			return handleReposAdd(ctx, rootDependencies, path, name)
		})
	},
}

var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered repositories.",
	Run: func(cmd *cobra.Command, args []string) {
		runReposCommand(cmd, func(ctx context.Context, rootDependencies *RootDependencies) error {
			format, _ := cmd.Flags().GetString("format")
			return handleReposList(ctx, rootDependencies, format)
		})
	},
}

var reposRemoveCmd = &cobra.Command{
	Use:   "remove [name-or-path]",
	Short: "Remove a repository from the registry. Files on disk are left untouched.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runReposCommand(cmd, func(ctx context.Context, rootDependencies *RootDependencies) error {
			return handleReposRemove(ctx, rootDependencies, args[0])
		})
	},
}

func init() {
	reposAddCmd.Flags().String("name", "", "Name used with --repo (default: directory name).")
	reposListCmd.Flags().StringP("format", "f", formatText, "Output format: 'text', 'json' or 'yaml'.")

	reposCmd.AddCommand(reposAddCmd, reposListCmd, reposRemoveCmd)
	rootCmd.AddCommand(reposCmd)
}

func runReposCommand(cmd *cobra.Command, run func(ctx context.Context, rootDependencies *RootDependencies) error) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}
	defer rootDependencies.Close()

	if err := run(cmd.Context(), rootDependencies); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
	}
}

func handleReposAdd(ctx context.Context, rootDependencies *RootDependencies, path string, name string) error {
	projectPath, err := project_files.ValidateProjectPath(path)
	if err != nil {
		return err
	}

	git := utils.NewGitOperations(projectPath)
	remoteURL := ""
	if err := git.CheckGitRepo(ctx); err != nil {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: %v", err)))
	} else {
		remoteURL = git.GetRemoteURL(ctx)
	}

	repositories, err := rootDependencies.OpenRepositories()
	if err != nil {
		return err
	}
	defer repositories.Close()

	repo, err := repositories.Add(ctx, projectPath, name, remoteURL)
	if err != nil {
		return err
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Registered %s (%s)", repo.Name, repo.LocalPath)))
	return nil
}

func handleReposList(ctx context.Context, rootDependencies *RootDependencies, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	repositories, err := rootDependencies.OpenRepositories()
	if err != nil {
		return err
	}
	defer repositories.Close()

	repos, err := repositories.List(ctx)
	if err != nil {
		return err
	}

	if format != formatText {
		if repos == nil {
			repos = []models.Repository{}
		}
		return printStructured(format, repos)
	}

	if len(repos) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No repositories registered. Use 'gitai repos add'."))
		return nil
	}

	data := pterm.TableData{{"Name", "Path", "Branch", "Remote", "Last accessed"}}
	for _, repo := range repos {
		branch, err := utils.NewGitOperations(repo.LocalPath).GetBranchName(ctx)
		if err != nil {
			branch = "-"
		}
		data = append(data, []string{
			repo.Name,
			repo.LocalPath,
			branch,
			valueOrDash(repo.RemoteURL),
			repo.LastAccessed.Local().Format("2006-01-02 15:04"),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func handleReposRemove(ctx context.Context, rootDependencies *RootDependencies, nameOrPath string) error {
	repositories, err := rootDependencies.OpenRepositories()
	if err != nil {
		return err
	}
	defer repositories.Close()

	if err := repositories.Remove(ctx, nameOrPath); err != nil {
		return err
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Removed %s", nameOrPath)))
	return nil
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
