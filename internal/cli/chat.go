package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"drivethru/internal/lane"
)

// GoodbyeMessage is printed when the customer leaves the REPL early
const GoodbyeMessage = "No problem! Have a great day!"

var exitWords = map[string]bool{
	"quit":       true,
	"exit":       true,
	"cancel":     true,
	"never mind": true,
	"nevermind":  true,
}

type chatOptions struct {
	confidence float64
	once       bool
	verbose    bool
}

// NewChatCmd creates the chat command
func NewChatCmd(g *globalOptions) *cobra.Command {
	opts := chatOptions{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Take orders interactively in the terminal",
		Long: `Run a lane in the terminal. The agent greets each car, you type what the
customer says. Type quit, exit, cancel or never mind to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.confidence < 0 || opts.confidence > 1 {
				return fmt.Errorf("--confidence must be between 0 and 1")
			}
			return runChat(cmd.Context(), g, opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().Float64Var(&opts.confidence, "confidence", 1.0, "Speech recognition confidence attached to each utterance")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Stop after the first completed conversation")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Write logs to stderr")
	return cmd
}

func runChat(ctx context.Context, g *globalOptions, opts chatOptions, in io.Reader, out, errOut io.Writer) error {
	logOut := io.Discard
	if opts.verbose {
		logOut = errOut
	}

	a, err := newApp(ctx, g.configPath, logOut)
	if err != nil {
		return err
	}
	defer a.Close()

	l, err := a.newLane()
	if err != nil {
		return err
	}
	return chatLoop(ctx, l, opts, in, out)
}

func chatLoop(ctx context.Context, l *lane.Lane, opts chatOptions, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, headerStyle.Render("Drive-Thru"))
	fmt.Fprintln(out, dimStyle.Render("Type quit to leave"))
	fmt.Fprintln(out)
	agentSay(out, l.Open())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, customerStyle.Render("You: "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			l.Close(ctx)
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if exitWords[strings.ToLower(text)] {
			agentSay(out, GoodbyeMessage)
			l.Close(ctx)
			return nil
		}

		result := l.Turn(ctx, text, opts.confidence)
		agentSay(out, result.Response)
		if len(result.Escalate) > 0 {
			fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Escalation suggested: %v", result.Escalate)))
		}

		if !result.Complete {
			continue
		}
		if len(result.Order.Items) > 0 {
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Order: %s ($%.2f)", result.Order.Summary, result.Order.Total)))
		}
		if opts.once {
			return nil
		}
		fmt.Fprintln(out, dimStyle.Render("--- next car ---"))
		agentSay(out, l.Open())
	}
}

func agentSay(out io.Writer, text string) {
	if text == "" {
		return
	}
	fmt.Fprintln(out, agentStyle.Render("Agent:")+" "+text)
}
