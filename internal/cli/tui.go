package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"drivethru/internal/client"
	"drivethru/internal/tui"
)

// NewTUICmd creates the tui command
func NewTUICmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Drive a running lane from a full-screen simulator",
		Long: `Connect to a server started with "drivethru serve" and play the
customer. The API address defaults to DRIVETHRU_API_URL, then
http://localhost:8080.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(apiURL)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := c.CheckHealth(ctx); err != nil {
				return fmt.Errorf("API server at %s is not reachable: %w", c.BaseURL, err)
			}
			return tui.Run(c)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Drive-thru API base URL")
	return cmd
}
