package main

import (
	"context"

	"github.com/aretw0/beadnet/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [script.yaml]",
	Short: "Start the HTTP server",
	Long: `Exposes the network over a JSON API with a Server-Sent Events stream
and Prometheus metrics. The script presentation is played through POST /presentation/next.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		ttl, _ := cmd.Flags().GetDuration("snapshot-ttl")
		dir, _ := cmd.Flags().GetString("snapshot-dir")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.Serve(ctx, cli.ServeOptions{
			Options:     baseOptions(cmd, args),
			Port:        port,
			RedisAddr:   redisAddr,
			SnapshotTTL: ttl,
			SnapshotDir: dir,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for snapshots (memory when empty)")
	serveCmd.Flags().Duration("snapshot-ttl", 0, "Expire Redis snapshots after this duration")
	serveCmd.Flags().String("snapshot-dir", "", "Directory for snapshot files when Redis is not used")
}
