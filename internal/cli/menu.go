package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"drivethru/internal/models"
)

// NewSearchCmd creates the search command
func NewSearchCmd(g *globalOptions) *cobra.Command {
	var (
		k          int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the menu",
		Long: `Run a query through the menu engine and show the ranked matches with
the tier that answered it.

Examples:
  drivethru search "chalupa"
  drivethru search "something spicy" -k 5
  drivethru search "cheapest"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, g.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.engine.Search(ctx, strings.Join(args, " "), k)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, results)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "No matches.")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "%d. %-28s $%5.2f  %s\n", i+1, r.Item.Name, r.Item.Price,
					dimStyle.Render(fmt.Sprintf("%.2f %s: %s", r.Score, r.Tier, r.Reason)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "top", "k", 3, "Number of results")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// NewMenuCmd creates the menu command
func NewMenuCmd(g *globalOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Print the menu board",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), g.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			categories := models.Categories
			if category != "" {
				c, ok := models.ParseCategory(category)
				if !ok {
					return fmt.Errorf("unknown category %q", category)
				}
				categories = []models.Category{c}
			}

			out := cmd.OutOrStdout()
			for _, c := range categories {
				items := a.engine.CategoryItems(c)
				if len(items) == 0 {
					continue
				}
				fmt.Fprintln(out, headerStyle.Render(strings.ToUpper(string(c))))
				for _, item := range items {
					fmt.Fprintf(out, "  %-28s $%5.2f\n", item.Name, item.Price)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only show one category")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
