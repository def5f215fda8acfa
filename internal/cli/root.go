package cli

import (
	"fmt"
	"os"

	"nix-mcp-core/internal/config"
	"nix-mcp-core/pkg/version"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	app     *contexts

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

// NewRootCommand builds the nixmcp-core cobra tree, per
// nix-ai-help/internal/cli/root.go::NewRootCommand.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "nixmcp-core",
		Short:   "Search NixOS packages/options, Home Manager options, and nix-darwin options",
		Version: version.Get().Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadYAML(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			app = buildContexts(cfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(
		newSearchPackagesCmd(),
		newSearchOptionsCmd(),
		newGetPackageCmd(),
		newGetOptionCmd(),
		newStatsCmd(),
		newHomeManagerCmd(),
		newDarwinCmd(),
		newInteractiveCmd(),
	)

	return rootCmd
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render(err.Error()))
		os.Exit(1)
	}
}
