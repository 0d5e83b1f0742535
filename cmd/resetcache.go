package cmd

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/meysamhadeli/gitai/constants/lipgloss"
	"github.com/meysamhadeli/gitai/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the file read cache",
	Long: `The 'reset-cache' command removes the cached file contents and outlines kept in the cache
directory. Use --older-than to drop only stale entries, or --stats to inspect the cache.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")
		olderThan, _ := cmd.Flags().GetDuration("older-than")

		handleResetCacheCommand(cmd, force, stats, olderThan)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")
	resetCacheCmd.Flags().Duration("older-than", 0, "Only remove entries older than this age (e.g. 72h)")

	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(cmd *cobra.Command, force bool, showStats bool, olderThan time.Duration) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}
	defer rootDependencies.Close()

	cacheManager := rootDependencies.CacheManager
	if cacheManager == nil {
		fmt.Println(lipgloss.Yellow.Render("Cache is disabled. No cache to reset."))
		return
	}

	if showStats {
		printCacheStats(rootDependencies)
		return
	}

	if olderThan > 0 {
		removed, err := cacheManager.CleanExpiredCache(olderThan)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error cleaning cache: %v", err)))
			return
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Removed %d cache entries older than %s", removed, olderThan)))
		return
	}

	if !force {
		confirmed, err := utils.ConfirmPrompt("Are you sure you want to reset the entire cache?", bufio.NewReader(os.Stdin))
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			return
		}
		if !confirmed {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	spinner, _ := newSpinner(pterm.FgCyan).Start("Resetting cache...")
	err := cacheManager.ClearCache()
	_ = spinner.Stop()
	fmt.Print("\r")

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error resetting cache: %v", err)))
		return
	}
	fmt.Println(lipgloss.Green.Render("✓ Cache has been successfully reset!"))
}

func printCacheStats(rootDependencies *RootDependencies) {
	report, err := rootDependencies.CacheManager.GetCacheStats()
	if err != nil {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: Could not show statistics: %v", err)))
		return
	}

	fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
	fmt.Printf("  Cache Directory: %s\n", report.Dir)
	fmt.Printf("  Cached Entries: %d\n", report.Entries)
	fmt.Printf("  Total Size: %.2f MB\n", float64(report.SizeBytes)/(1024*1024))
	fmt.Printf("  Hit Rate (this process): %.1f%% of %d lookups\n", report.Lookups.HitRate, report.Lookups.Total())
}
