package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meysamhadeli/gitai/constants/lipgloss"
	"github.com/meysamhadeli/gitai/providers"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const connectionTestTimeout = 30 * time.Second

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported AI providers.",
	Long: `The 'providers' subcommand lists the supported AI providers with their default endpoints and
models. Pass --test to check the configured provider can be reached with the current credentials.`,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		test, _ := cmd.Flags().GetBool("test")

		if err := handleProvidersCommand(cmd, format, test); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
	},
}

func init() {
	providersCmd.Flags().StringP("format", "f", formatText, "Output format: 'text', 'json' or 'yaml'.")
	providersCmd.Flags().Bool("test", false, "Test the connection to the configured provider.")
	rootCmd.AddCommand(providersCmd)
}

func handleProvidersCommand(cmd *cobra.Command, format string, test bool) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if test {
		return testProviderConnection(cmd)
	}

	list := providers.AvailableProviders()
	if format != formatText {
		return printStructured(format, list)
	}

	data := pterm.TableData{{"ID", "Name", "Default base URL", "Models", "API key"}}
	for _, info := range list {
		apiKey := "optional"
		if info.RequiresAPIKey {
			apiKey = "required"
		}
		data = append(data, []string{info.ID, info.Name, info.DefaultBaseURL, strings.Join(info.Models, ", "), apiKey})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func testProviderConnection(cmd *cobra.Command) error {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return nil
	}
	defer rootDependencies.Close()

	provider := rootDependencies.ChatProvider
	if err := provider.Validate(); err != nil {
		return fmt.Errorf("ai provider is not configured: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), connectionTestTimeout)
	defer cancel()

	spinner, _ := newSpinner(pterm.FgLightBlue).Start(fmt.Sprintf("Testing connection to %s...", provider.Name()))
	err := provider.TestConnection(ctx)
	_ = spinner.Stop()
	fmt.Print("\r")
	if err != nil {
		return fmt.Errorf("connection to %s failed: %w", provider.Name(), err)
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ %s is reachable with model %s", provider.Name(), rootDependencies.Config.AIProviderConfig.Model)))
	return nil
}
