package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vuer-ai/zaku-go/pkg/security"
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Generate a self-signed certificate for local TLS",
	Long: `Generate a self-signed certificate and key for serving the broker
over TLS without a real CA. The certificate covers the given hosts
(DNS names or IP addresses) and doubles as its own CA, so clients can
pin it with --ca-cert.

Examples:
  # Serve TLS on localhost
  zaku cert --hosts localhost,127.0.0.1 --out-dir ./certs
  zaku server --cert ./certs/broker.crt --key ./certs/broker.key`,
	RunE: runCert,
}

func init() {
	certCmd.Flags().String("hosts", "localhost,127.0.0.1", "Comma-separated DNS names and IPs the certificate covers")
	certCmd.Flags().String("out-dir", ".", "Directory to write broker.crt and broker.key into")
	certCmd.Flags().Duration("validity", 365*24*time.Hour, "How long the certificate stays valid")
	certCmd.Flags().String("cn", "zaku-broker", "Certificate common name")

	rootCmd.AddCommand(certCmd)
}

func runCert(cmd *cobra.Command, args []string) error {
	hostList, _ := cmd.Flags().GetString("hosts")
	outDir, _ := cmd.Flags().GetString("out-dir")
	validity, _ := cmd.Flags().GetDuration("validity")
	cn, _ := cmd.Flags().GetString("cn")

	var hosts []string
	for _, h := range strings.Split(hostList, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		return fmt.Errorf("at least one host is required")
	}

	certPEM, keyPEM, err := security.GenerateSelfSigned(cn, hosts, validity)
	if err != nil {
		return fmt.Errorf("failed to generate certificate: %w", err)
	}

	certPath, keyPath, err := security.WriteCertFiles(outDir, certPEM, keyPEM)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Certificate written: %s\n", certPath)
	fmt.Printf("✓ Private key written: %s\n", keyPath)
	fmt.Printf("  valid for %s, hosts: %s\n", validity, strings.Join(hosts, ", "))
	return nil
}
