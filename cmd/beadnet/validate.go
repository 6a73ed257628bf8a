package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/beadnet/internal/cli"
	"github.com/aretw0/beadnet/pkg/script"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <script.yaml>",
	Short: "Check a presentation script",
	Long:  `Decodes every sub-step of the script and reports unknown commands, wrong arities and malformed arguments.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := cli.Validate(args[0])
		var aggr *script.AggregateError
		if errors.As(err, &aggr) {
			for _, e := range aggr.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %v\n", e)
			}
			return fmt.Errorf("validation failed: %d invalid sub-steps", len(aggr.Errors))
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Script is valid! %d steps ✅\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
