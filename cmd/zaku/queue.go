package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vuer-ai/zaku-go/pkg/client"
)

// Queue admin commands, all thin wrappers over the client SDK.
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage task queues on a running broker",
}

var queueCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := newAdminClient(cmd, args[0])
		if err != nil {
			return err
		}
		if err := q.Init(cmd.Context()); err != nil {
			return fmt.Errorf("failed to create queue: %w", err)
		}
		fmt.Printf("✓ Queue created: %s\n", args[0])
		return nil
	},
}

var queueCountCmd = &cobra.Command{
	Use:   "count NAME",
	Short: "Count jobs waiting to be taken",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := newAdminClient(cmd, args[0])
		if err != nil {
			return err
		}
		n, err := q.Count(cmd.Context())
		if errors.Is(err, client.ErrNoQueue) {
			return fmt.Errorf("queue %s does not exist", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to count queue: %w", err)
		}
		fmt.Println(n)
		return nil
	},
	Args: cobra.ExactArgs(1),
}

var queueUnstaleCmd = &cobra.Command{
	Use:   "unstale NAME",
	Short: "Return stale in-progress jobs to the queue",
	Long: `Return in-progress jobs whose lease is older than --ttl to created
so another worker can take them. A --ttl of 0 sweeps every outstanding
lease, including ones a healthy worker still holds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl, _ := cmd.Flags().GetDuration("ttl")
		q, err := newAdminClient(cmd, args[0])
		if err != nil {
			return err
		}
		if err := q.Unstale(cmd.Context(), ttl); err != nil {
			return fmt.Errorf("failed to unstale queue: %w", err)
		}
		fmt.Printf("✓ Stale leases older than %s returned to %s\n", ttl, args[0])
		return nil
	},
}

var queueClearCmd = &cobra.Command{
	Use:     "clear NAME",
	Aliases: []string{"drain"},
	Short:   "Remove every job from a queue",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := newAdminClient(cmd, args[0])
		if err != nil {
			return err
		}
		if err := q.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear queue: %w", err)
		}
		fmt.Printf("✓ Queue cleared: %s\n", args[0])
		return nil
	},
}

var queueDropCmd = &cobra.Command{
	Use:   "drop NAME",
	Short: "Drop a queue and its index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := newAdminClient(cmd, args[0])
		if err != nil {
			return err
		}
		if err := q.Drop(cmd.Context()); err != nil {
			return fmt.Errorf("failed to drop queue: %w", err)
		}
		fmt.Printf("✓ Queue dropped: %s\n", args[0])
		return nil
	},
}

func init() {
	queueCmd.AddCommand(queueCreateCmd)
	queueCmd.AddCommand(queueCountCmd)
	queueCmd.AddCommand(queueUnstaleCmd)
	queueCmd.AddCommand(queueClearCmd)
	queueCmd.AddCommand(queueDropCmd)

	queueCmd.PersistentFlags().String("uri", "", "Broker URI (default $ZAKU_URI or http://localhost:9000)")
	queueCmd.PersistentFlags().String("ca-cert", "", "CA certificate for verifying the broker over TLS")

	queueUnstaleCmd.Flags().Duration("ttl", 5*time.Minute, "Lease age beyond which a job counts as stale")
}

// newAdminClient builds a TaskQ from the shared --uri/--ca-cert flags,
// falling back to the client's environment defaults.
func newAdminClient(cmd *cobra.Command, queue string) (*client.TaskQ, error) {
	uri, _ := cmd.Flags().GetString("uri")
	if uri == "" {
		uri = os.Getenv(client.EnvURI)
	}
	caCert, _ := cmd.Flags().GetString("ca-cert")
	if caCert != "" {
		return client.NewWithTLS(uri, queue, caCert)
	}
	return client.New(uri, queue)
}
