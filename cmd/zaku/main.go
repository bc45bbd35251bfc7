package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zaku",
	Short: "Zaku - task queue and pub/sub broker",
	Long: `Zaku is a networked task-queue and pub/sub broker. Queue metadata
lives in Redis behind a search index, job payloads live in MongoDB or
Redis, and topics fan messages out to whoever is subscribed right now.

Workers take jobs over HTTP with msgpack bodies; stale leases are
reclaimed with unstale; expired payloads are garbage collected by the
expiration watcher.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Zaku version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(queueCmd)
}
