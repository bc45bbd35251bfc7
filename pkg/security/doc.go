/*
Package security builds the TLS configurations used by the broker and
the client SDK.

# Architecture

The broker terminates TLS itself when certificate files are
configured; there is no certificate authority or rotation machinery.
Operators bring PEM files, the package turns them into tls.Config
values:

	cert_file + key_file ──▶ ServerTLSConfig ──▶ broker listener
	          + ca_cert        (optional mTLS: require client certs)

	ca_cert ──▶ ClientTLSConfig ──▶ SDK http.Transport
	            (empty: system roots)

Both sides pin TLS 1.3 as the minimum version.

# Self-Signed Material

GenerateSelfSigned produces a throwaway certificate for the hosts it
is given, and WriteCertFiles lands the PEM bytes on disk with 0600
permissions. Development brokers and the test harness use these;
nothing in the production path generates certificates.

# Usage

	cfg, err := security.ServerTLSConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.CACert)
	if err != nil {
	    return err
	}
	server.TLSConfig = cfg

# Integration Points

  - pkg/api: server-side TLS when certificates are configured
  - pkg/client: dialing TLS, trusting a custom CA when given
  - test/framework: self-signed material for TLS scenarios

# See Also

  - pkg/config for where certificate paths come from
*/
package security
