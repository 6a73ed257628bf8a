package main

import (
	"fmt"
	"os"

	"github.com/aretw0/beadnet/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "beadnet",
	Short: "Beadnet models payment channels as beads moving between nodes",
	Long: `Beadnet builds a network of nodes linked by funded channels and plays
presentations in which balances move across channels one bead at a time.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Options file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log to stderr at this level: debug, info, warn or error")
}

// baseOptions reads the persistent flags.
func baseOptions(cmd *cobra.Command, args []string) cli.Options {
	configPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	opts := cli.Options{
		ConfigPath: configPath,
		Logger:     cli.NewLogger(level),
	}
	if len(args) > 0 {
		opts.ScriptPath = args[0]
	}
	return opts
}
