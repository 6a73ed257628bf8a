package main

import (
	"context"
	"os"
	"strings"

	"github.com/aretw0/beadnet"
	"github.com/aretw0/beadnet/internal/cli"
	"github.com/aretw0/beadnet/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [script.yaml]",
	Short: "Play a presentation",
	Long: `Plays the presentation of a script file, or the built-in demo when none is given.
In a terminal it opens an interactive view (n/space: next step, q: quit).
Otherwise, or with --text, every step is played and printed in order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		textMode, _ := cmd.Flags().GetBool("text")
		instant, _ := cmd.Flags().GetBool("instant")

		opts := cli.PlayOptions{
			Options:     baseOptions(cmd, args),
			Interactive: !textMode && cli.IsTerminal(os.Stdin) && cli.IsTerminal(os.Stdout),
		}
		opts.Instant = instant
		if cli.IsTerminal(os.Stdout) {
			if render, err := tui.NewRenderer(80); err == nil {
				opts.Render = render
			}
			if !opts.Interactive {
				tui.PrintBanner(cmd.OutOrStdout(), strings.TrimSpace(beadnet.Version))
			}
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		err := cli.Play(ctx, cmd.OutOrStdout(), opts)
		if ctx.Signal() != nil {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().Bool("text", false, "Print the steps instead of opening the interactive view")
	playCmd.Flags().Bool("instant", false, "Move beads without animation delays")
}
