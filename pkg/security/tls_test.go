package security

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGenerateSelfSigned(t *testing.T) {
	certPEM, keyPEM, err := GenerateSelfSigned("zaku-broker", []string{"localhost", "127.0.0.1"}, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate certificate: %v", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatal("Expected PEM-encoded certificate")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}

	if cert.Subject.CommonName != "zaku-broker" {
		t.Errorf("Expected CN zaku-broker, got %s", cert.Subject.CommonName)
	}
	if len(cert.DNSNames) != 1 || cert.DNSNames[0] != "localhost" {
		t.Errorf("Expected DNS name localhost, got %v", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 {
		t.Errorf("Expected one IP SAN, got %v", cert.IPAddresses)
	}

	// Key pair must be usable together
	if _, err := tls.X509KeyPair(certPEM, keyPEM); err != nil {
		t.Errorf("Generated key pair does not load: %v", err)
	}
}

func TestServerTLSConfig(t *testing.T) {
	certPEM, keyPEM, err := GenerateSelfSigned("zaku-broker", []string{"localhost"}, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate certificate: %v", err)
	}

	certPath, keyPath, err := WriteCertFiles(t.TempDir(), certPEM, keyPEM)
	if err != nil {
		t.Fatalf("Failed to write cert files: %v", err)
	}

	cfg, err := ServerTLSConfig(certPath, keyPath, "")
	if err != nil {
		t.Fatalf("Failed to build server config: %v", err)
	}

	if len(cfg.Certificates) != 1 {
		t.Errorf("Expected one certificate, got %d", len(cfg.Certificates))
	}
	if cfg.MinVersion != tls.VersionTLS13 {
		t.Errorf("Expected TLS 1.3 minimum, got %x", cfg.MinVersion)
	}
	if cfg.ClientAuth != tls.NoClientCert {
		t.Error("Expected no client auth without a CA file")
	}
}

func TestServerTLSConfigWithClientCA(t *testing.T) {
	certPEM, keyPEM, err := GenerateSelfSigned("zaku-broker", []string{"localhost"}, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate certificate: %v", err)
	}

	dir := t.TempDir()
	certPath, keyPath, err := WriteCertFiles(dir, certPEM, keyPEM)
	if err != nil {
		t.Fatalf("Failed to write cert files: %v", err)
	}

	// Reuse the self-signed certificate as the client CA
	caPath := filepath.Join(dir, "ca.crt")
	if err := os.WriteFile(caPath, certPEM, 0600); err != nil {
		t.Fatalf("Failed to write CA file: %v", err)
	}

	cfg, err := ServerTLSConfig(certPath, keyPath, caPath)
	if err != nil {
		t.Fatalf("Failed to build server config: %v", err)
	}

	if cfg.ClientAuth != tls.RequireAndVerifyClientCert {
		t.Error("Expected client certificates to be required")
	}
	if cfg.ClientCAs == nil {
		t.Error("Expected a client CA pool")
	}
}

func TestClientTLSConfig(t *testing.T) {
	certPEM, _, err := GenerateSelfSigned("zaku-broker", []string{"localhost"}, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate certificate: %v", err)
	}

	caPath := filepath.Join(t.TempDir(), "ca.crt")
	if err := os.WriteFile(caPath, certPEM, 0600); err != nil {
		t.Fatalf("Failed to write CA file: %v", err)
	}

	cfg, err := ClientTLSConfig(caPath)
	if err != nil {
		t.Fatalf("Failed to build client config: %v", err)
	}
	if cfg.RootCAs == nil {
		t.Error("Expected a root CA pool")
	}

	// Without a CA file the system roots apply
	cfg, err = ClientTLSConfig("")
	if err != nil {
		t.Fatalf("Failed to build default client config: %v", err)
	}
	if cfg.RootCAs != nil {
		t.Error("Expected nil root pool for system roots")
	}
}

func TestLoadCertPoolRejectsGarbage(t *testing.T) {
	caPath := filepath.Join(t.TempDir(), "ca.crt")
	if err := os.WriteFile(caPath, []byte("not a certificate"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := LoadCertPool(caPath); err == nil {
		t.Error("Expected error for non-PEM input")
	}

	if _, err := LoadCertPool(filepath.Join(t.TempDir(), "missing.crt")); err == nil {
		t.Error("Expected error for missing file")
	}
}
