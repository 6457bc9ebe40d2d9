package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"drivethru/internal/models/providers"
)

// NewModelsCmd creates the models command
func NewModelsCmd(g *globalOptions) *cobra.Command {
	var test bool

	cmd := &cobra.Command{
		Use:   "models [provider]",
		Short: "List model providers and test connectivity",
		Long: `List the configured model providers and the GitHub Models catalog.
With --test a one-line prompt is sent to the named provider, or to
llm.provider when none is named.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, g.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if test {
				name := a.cfg.LLM.Provider
				if len(args) == 1 {
					name = args[0]
				}
				if err := a.registry.TestModel(ctx, name); err != nil {
					fmt.Fprintf(out, "%s %s: %v\n", failStyle.Render("✗"), name, err)
					return fmt.Errorf("provider %s is not reachable", name)
				}
				fmt.Fprintf(out, "%s %s\n", passStyle.Render("✓"), name)
				return nil
			}

			fmt.Fprintln(out, headerStyle.Render("Providers"))
			for _, name := range a.registry.Providers() {
				marker := " "
				if name == a.cfg.LLM.Provider {
					marker = "*"
				}
				fmt.Fprintf(out, " %s %s\n", marker, name)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, headerStyle.Render("GitHub Models"))
			for _, m := range providers.GitHubModels() {
				fmt.Fprintf(out, "   %-30s %s\n", m.ID, dimStyle.Render(fmt.Sprintf("%s, %d tokens", m.Name, m.MaxTokens)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&test, "test", false, "Send a test prompt to the provider")
	return cmd
}
