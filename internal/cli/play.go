package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/beadnet"
	"github.com/aretw0/beadnet/internal/presentation/tui"
	"github.com/aretw0/beadnet/pkg/domain"
	tea "github.com/charmbracelet/bubbletea"
)

// PlayOptions configures the play command.
type PlayOptions struct {
	Options
	// Interactive starts the terminal view instead of printing every step.
	Interactive bool
	// Render formats step labels; nil prints them verbatim.
	Render func(string) (string, error)
}

// Play runs the presentation until its last step or until ctx is cancelled.
func Play(ctx context.Context, w io.Writer, opts PlayOptions) error {
	bn, _, err := createEngine(opts.Options)
	if err != nil {
		return err
	}
	defer bn.CancelTransfers()

	if opts.Interactive {
		return playInteractive(ctx, bn, opts.Render)
	}
	return playText(ctx, w, bn, opts.Render)
}

func playInteractive(ctx context.Context, bn *beadnet.Beadnet, render func(string) (string, error)) error {
	var tuiOpts []tui.Option
	if render != nil {
		tuiOpts = append(tuiOpts, tui.WithRenderer(render))
	}
	model := tui.New(ctx, bn, tuiOpts...)
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal view failed: %w", err)
	}
	return nil
}

// playText plays every step, waiting for the beads of each step to arrive
// before moving on, and prints the labels and the final network.
func playText(ctx context.Context, w io.Writer, bn *beadnet.Beadnet, render func(string) (string, error)) error {
	total := bn.Presentation().Len()
	for i := 1; ; i++ {
		label, err := bn.NextStep(ctx)
		if errors.Is(err, domain.ErrPresentationEnded) {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprintf(w, "Step %d/%d\n", i, total)
		if label != "" {
			fmt.Fprintln(w, renderLabel(render, label))
		}
		if err != nil {
			printSystemMessage(w, "step failed: %v", err)
		}
		if err := bn.WaitTransfers(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			printSystemMessage(w, "transfer failed: %v", err)
		}
	}

	printSnapshot(w, bn.Snapshot())
	return nil
}

func renderLabel(render func(string) (string, error), label string) string {
	if render == nil {
		return label
	}
	out, err := render(label)
	if err != nil {
		return label
	}
	return strings.TrimRight(out, "\n")
}

func printSnapshot(w io.Writer, s domain.Snapshot) {
	fmt.Fprintln(w)
	for _, node := range s.Nodes {
		fmt.Fprintf(w, "%-12s free %-4d offchain %d\n", node.ID, node.Balance, node.OffchainBalance)
	}
	for _, ch := range s.Channels {
		fmt.Fprintf(w, "%s -> %s  %d:%d\n", ch.Source, ch.Target, ch.SourceBalance, ch.TargetBalance)
	}
}
