package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"drivethru/internal/evaluation"
)

// NewEvalCmd creates the eval command
func NewEvalCmd(g *globalOptions) *cobra.Command {
	var (
		list       bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "eval [scenario]",
		Short: "Run scripted evaluation scenarios",
		Long: `Drive scripted conversations through a fresh conversation manager and
check the final state and order. With no scenario every built-in scenario
runs. The command fails when any scenario fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), g.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			evaluator := a.newEvaluator()
			out := cmd.OutOrStdout()

			if list {
				for _, s := range evaluator.Scenarios() {
					fmt.Fprintf(out, "%-20s %s\n", s.ID, dimStyle.Render(s.Description))
				}
				return nil
			}

			var results []*evaluation.EvaluationResult
			if len(args) == 1 {
				if !evaluator.HasScenario(args[0]) {
					return fmt.Errorf("unknown scenario %q", args[0])
				}
				result, err := evaluator.Run(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				results = append(results, result)
			} else {
				results, err = evaluator.RunAll(cmd.Context())
				if err != nil {
					return err
				}
			}

			if jsonOutput {
				if err := writeJSON(out, results); err != nil {
					return err
				}
			} else {
				printResults(cmd, results)
			}

			failed := 0
			for _, r := range results {
				if !r.Passed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List scenarios without running them")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	return cmd
}

func printResults(cmd *cobra.Command, results []*evaluation.EvaluationResult) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		status := passStyle.Render("PASS")
		if !r.Passed {
			status = failStyle.Render("FAIL")
		}
		fmt.Fprintf(out, "%s %-20s state=%s total=$%.2f turns=%d\n",
			status, r.Scenario, r.FinalState, r.Total, len(r.Transcript))
		for _, f := range r.Failures {
			fmt.Fprintf(out, "     %s\n", f)
		}
	}
}
