package session

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"github.com/casmap/casmap/config"
)

// createTLSConfig assembles a tls.Config from the SSL settings.
func createTLSConfig(sslConfig *config.SSLConfig, hostname string) (*tls.Config, error) {
	serverName := hostname
	if colonIdx := strings.LastIndex(serverName, ":"); colonIdx > 0 {
		serverName = serverName[:colonIdx]
	}

	// With AllowLegacyCN standard verification is bypassed and replaced
	// by the VerifyConnection callback below.
	skipVerify := sslConfig.InsecureSkipVerify || (sslConfig.AllowLegacyCN && sslConfig.HostVerification)

	tlsConfig := &tls.Config{
		InsecureSkipVerify: skipVerify, // #nosec G402 - configurable TLS verification
	}

	if sslConfig.HostVerification && !sslConfig.AllowLegacyCN && serverName != "" {
		tlsConfig.ServerName = serverName
	}

	if sslConfig.CertPath != "" && sslConfig.KeyPath != "" {
		cert, err := tls.LoadX509KeyPair(sslConfig.CertPath, sslConfig.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if sslConfig.CAPath != "" {
		caCert, err := os.ReadFile(sslConfig.CAPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = caCertPool
	}

	if sslConfig.AllowLegacyCN && sslConfig.HostVerification {
		tlsConfig.VerifyConnection = func(cs tls.ConnectionState) error {
			return verifyLegacyCN(cs, tlsConfig.RootCAs, serverName)
		}
	}

	return tlsConfig, nil
}

// verifyLegacyCN first attempts standard SAN verification and falls
// back to matching the certificate's Common Name against the expected
// server name.
func verifyLegacyCN(cs tls.ConnectionState, roots *x509.CertPool, serverName string) error {
	if len(cs.PeerCertificates) == 0 {
		return fmt.Errorf("no peer certificates")
	}

	intermediates := x509.NewCertPool()
	for _, cert := range cs.PeerCertificates[1:] {
		intermediates.AddCert(cert)
	}

	opts := x509.VerifyOptions{
		DNSName:       serverName,
		Intermediates: intermediates,
	}
	if roots != nil {
		opts.Roots = roots
	}
	if _, err := cs.PeerCertificates[0].Verify(opts); err == nil {
		return nil
	}

	// Chain must still be valid without the hostname check.
	optsNoHostname := x509.VerifyOptions{Intermediates: intermediates}
	if roots != nil {
		optsNoHostname.Roots = roots
	}
	if _, err := cs.PeerCertificates[0].Verify(optsNoHostname); err != nil {
		return fmt.Errorf("certificate verification failed: %w", err)
	}

	cert := cs.PeerCertificates[0]
	if cert.Subject.CommonName == serverName {
		return nil
	}
	return fmt.Errorf("certificate CN %q doesn't match expected hostname %q", cert.Subject.CommonName, serverName)
}
