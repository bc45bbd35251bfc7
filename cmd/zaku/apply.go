package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a queue manifest",
	Long: `Declare queues on a running broker from a YAML manifest.

Each queue is created if missing; a queue with an unstale policy also
has leases older than that age returned to created.

Examples:
  # Apply a fleet of queues
  zaku apply -f queues.yaml`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "YAML manifest to apply (required)")
	applyCmd.Flags().String("uri", "", "Broker URI (default $ZAKU_URI or http://localhost:9000)")
	applyCmd.Flags().String("ca-cert", "", "CA certificate for verifying the broker over TLS")
	_ = applyCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(applyCmd)
}

// queueManifest is the document shape zaku apply consumes:
//
//	kind: QueueList
//	queues:
//	  - name: vision-1
//	    unstale: 15m
//	  - name: render
type queueManifest struct {
	Kind   string      `yaml:"kind"`
	Queues []queueSpec `yaml:"queues"`
}

type queueSpec struct {
	Name    string `yaml:"name"`
	Unstale string `yaml:"unstale,omitempty"`
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest queueManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Kind != "QueueList" {
		return fmt.Errorf("unsupported manifest kind: %q", manifest.Kind)
	}

	for i, spec := range manifest.Queues {
		if spec.Name == "" {
			return fmt.Errorf("queue %d has no name", i)
		}
		if err := applyQueue(cmd, spec); err != nil {
			return err
		}
	}

	fmt.Printf("✓ Applied %d queue(s)\n", len(manifest.Queues))
	return nil
}

func applyQueue(cmd *cobra.Command, spec queueSpec) error {
	q, err := newAdminClient(cmd, spec.Name)
	if err != nil {
		return err
	}
	if err := q.Init(cmd.Context()); err != nil {
		return fmt.Errorf("failed to create queue %s: %w", spec.Name, err)
	}
	fmt.Printf("✓ Queue applied: %s\n", spec.Name)

	if spec.Unstale == "" {
		return nil
	}
	ttl, err := time.ParseDuration(spec.Unstale)
	if err != nil {
		return fmt.Errorf("queue %s has a bad unstale value %q: %w", spec.Name, spec.Unstale, err)
	}
	if err := q.Unstale(cmd.Context(), ttl); err != nil {
		return fmt.Errorf("failed to unstale queue %s: %w", spec.Name, err)
	}
	fmt.Printf("  leases older than %s returned to created\n", ttl)
	return nil
}
