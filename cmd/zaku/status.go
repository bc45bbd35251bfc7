package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vuer-ai/zaku-go/pkg/client"
	"github.com/vuer-ai/zaku-go/pkg/health"
	"github.com/vuer-ai/zaku-go/pkg/security"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe a running broker's health and readiness",
	Long: `Probe a broker's /health and /ready endpoints and report what they
answer. Health is liveness; ready means every backing store responds
to pings. Exits non-zero when either probe fails, so the command works
as a scriptable check.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("uri", "", "Broker URI (default $ZAKU_URI or http://localhost:9000)")
	statusCmd.Flags().String("ca-cert", "", "CA certificate for verifying the broker over TLS")
	statusCmd.Flags().Duration("timeout", 5*time.Second, "Per-probe timeout")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	uri, _ := cmd.Flags().GetString("uri")
	if uri == "" {
		uri = os.Getenv(client.EnvURI)
	}
	if uri == "" {
		uri = client.DefaultURI
	}
	uri = strings.TrimRight(uri, "/")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	probes := []*health.HTTPChecker{
		health.NewHTTPChecker("health", uri+"/health").WithTimeout(timeout),
		health.NewHTTPChecker("ready", uri+"/ready").WithTimeout(timeout),
	}

	if caCert, _ := cmd.Flags().GetString("ca-cert"); caCert != "" {
		tlsCfg, err := security.ClientTLSConfig(caCert)
		if err != nil {
			return err
		}
		for _, p := range probes {
			p.Client.Transport = &http.Transport{TLSClientConfig: tlsCfg}
		}
	}

	failed := false
	for _, p := range probes {
		res := p.Check(cmd.Context())
		mark := "✓"
		if !res.Healthy {
			mark = "✗"
			failed = true
		}
		fmt.Printf("%s %-7s %s (%s)\n", mark, p.Name(), res.Message, res.Duration.Round(time.Millisecond))
	}
	if failed {
		return fmt.Errorf("broker at %s is not healthy", uri)
	}
	return nil
}
