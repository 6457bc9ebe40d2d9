// Package cli implements the drivethru command line.
package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"drivethru/internal/config"
)

// Styling
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	customerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0a84ff")).Bold(true)
	agentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#30d158")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff9f0a")).Bold(true)
	passStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#30d158"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff453a"))
)

// globalOptions are the flags shared by every command
type globalOptions struct {
	configPath string
}

// NewRootCmd creates the drivethru command tree
func NewRootCmd(version string) *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "drivethru",
		Short: "Conversational drive-thru ordering agent",
		Long: `drivethru takes orders at a drive-thru lane.

Each customer utterance is classified into an intent, matched against the
menu, applied to the order and answered in the restaurant's voice. It runs
fully offline with the rule classifier, or with an OpenAI, Azure OpenAI or
GitHub Models backend.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", config.DefaultPath, "Path to configuration file")

	rootCmd.AddCommand(NewServeCmd(g))
	rootCmd.AddCommand(NewChatCmd(g))
	rootCmd.AddCommand(NewTUICmd())
	rootCmd.AddCommand(NewSearchCmd(g))
	rootCmd.AddCommand(NewMenuCmd(g))
	rootCmd.AddCommand(NewEvalCmd(g))
	rootCmd.AddCommand(NewModelsCmd(g))
	return rootCmd
}
