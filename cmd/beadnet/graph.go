package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/beadnet/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [script.yaml]",
	Short: "Export the network reached by a presentation",
	Long:  `Plays every step instantly and outputs a Mermaid diagram (graph LR) of the resulting network.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := baseOptions(cmd, args)
		watch, _ := cmd.Flags().GetBool("watch")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		if watch {
			if opts.ScriptPath == "" {
				return fmt.Errorf("--watch needs a script file")
			}
			return cli.RunGraphWatch(ctx, cmd.OutOrStdout(), opts, 500*time.Millisecond)
		}

		out, err := cli.RenderGraph(ctx, opts)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().BoolP("watch", "w", false, "Print the graph again whenever the script changes")
}
