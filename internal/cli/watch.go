package cli

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// WatchFile polls path and emits its name whenever its content changes.
// The channel is closed when ctx is done.
func WatchFile(ctx context.Context, path string, interval time.Duration) <-chan string {
	changes := make(chan string, 1)
	go func() {
		defer close(changes)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := fileHash(path)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current := fileHash(path)
				if current == last {
					continue
				}
				last = current
				select {
				case changes <- path:
				default:
				}
			}
		}
	}()
	return changes
}

func fileHash(path string) [md5.Size]byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return [md5.Size]byte{}
	}
	return md5.Sum(data)
}

// RunGraphWatch prints the Mermaid graph of the script, then prints it again
// each time the script or the config file changes, until ctx is done.
func RunGraphWatch(ctx context.Context, w io.Writer, opts Options, interval time.Duration) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	changes := WatchFile(ctx, opts.ScriptPath, interval)
	var configChanges <-chan string
	if opts.ConfigPath != "" {
		configChanges = WatchFile(ctx, opts.ConfigPath, interval)
	}

	for {
		out, err := RenderGraph(ctx, opts)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			logger.Error("Graph rendering failed", "err", err)
			printSystemMessage(w, "%v", err)
		default:
			fmt.Fprint(w, out)
		}
		printSystemMessage(w, "Waiting for changes...")

		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Info("Change detected, re-rendering", "path", path)
		case path := <-configChanges:
			logger.Info("Change detected, re-rendering", "path", path)
		}
	}
}
