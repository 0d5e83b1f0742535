package cmd

import (
	"fmt"

	"github.com/meysamhadeli/gitai/constants/lipgloss"
	"github.com/meysamhadeli/gitai/project_files/models"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show the project files the pipeline can see.",
	Long: `The 'tree' subcommand lists the project files after the ignore rules are
applied (defaults plus .gitai-ignore), which is the same tree the file selectors choose from.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		defer rootDependencies.Close()

		if err := handleTreeCommand(cmd, rootDependencies); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
	},
}

func init() {
	treeCmd.Flags().String("repo", "", "Name or path of a registered repository.")
	treeCmd.Flags().String("path", "", "Path of the project (default: working directory).")
	treeCmd.Flags().Int("depth", 0, "Maximum directory depth (default: max_tree_depth).")
	treeCmd.Flags().StringP("format", "f", formatText, "Output format: 'text', 'json' or 'yaml'.")
	rootCmd.AddCommand(treeCmd)
}

func handleTreeCommand(cmd *cobra.Command, rootDependencies *RootDependencies) error {
	repo, _ := cmd.Flags().GetString("repo")
	path, _ := cmd.Flags().GetString("path")
	depth, _ := cmd.Flags().GetInt("depth")
	format, _ := cmd.Flags().GetString("format")

	if err := validateFormat(format); err != nil {
		return err
	}
	if depth <= 0 {
		depth = rootDependencies.Config.MaxTreeDepth
	}

	projectPath, err := rootDependencies.resolveProjectPath(cmd, repo, path)
	if err != nil {
		return err
	}

	tree, err := rootDependencies.FileAccess.ListProjectFiles(cmd.Context(), projectPath, depth)
	if err != nil {
		return err
	}

	if format != formatText {
		return printStructured(format, tree)
	}

	root := toTreeNode(tree)
	root.Text = lipgloss.BlueSky.Render(projectPath)
	if err := pterm.DefaultTree.WithRoot(root).Render(); err != nil {
		return err
	}
	fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("%d files", len(tree.Files()))))
	return nil
}

func toTreeNode(node *models.FileTreeNode) pterm.TreeNode {
	text := node.Name
	if !node.IsFile() {
		text = lipgloss.Info.Render(node.Name + "/")
	}

	children := make([]pterm.TreeNode, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, toTreeNode(child))
	}
	return pterm.TreeNode{Text: text, Children: children}
}
