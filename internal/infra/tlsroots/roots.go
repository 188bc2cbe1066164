package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrNoCertsFound is returned for a PEM input without certificates.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

	// ErrKeyFileRequired is returned when cert_file is set without key_file.
	ErrKeyFileRequired = errors.New("tlsroots: key_file is required with cert_file")
)

// caExtensions are the files picked up from CADir.
var caExtensions = map[string]bool{".pem": true, ".crt": true, ".cer": true}

// Config selects the trust roots and optional client certificate.
type Config struct {
	// CAFile is a PEM bundle added to the system roots.
	CAFile string `koanf:"ca_file"`
	// CADir holds additional .pem/.crt/.cer files.
	CADir string `koanf:"ca_dir"`
	// CertFile and KeyFile enable a client certificate.
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
	// ServerName overrides the name used to verify the server.
	ServerName string `koanf:"server_name"`
}

// Enabled reports whether any setting differs from the system defaults.
func (c Config) Enabled() bool {
	return c.CAFile != "" || c.CADir != "" || c.CertFile != "" || c.ServerName != ""
}

// appendPEM adds every CERTIFICATE block of data to pool and returns how
// many were added.
func appendPEM(pool *x509.CertPool, data []byte) (int, error) {
	n := 0
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return n, fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		pool.AddCert(cert)
		n++
	}
	if n == 0 {
		return 0, ErrNoCertsFound
	}
	return n, nil
}

func appendFile(pool *x509.CertPool, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("tlsroots: read %s: %w", path, err)
	}
	n, err := appendPEM(pool, data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// appendDir adds the CA files in dir. Unreadable files are logged and
// skipped; a missing directory is an error.
func appendDir(pool *x509.CertPool, dir string, logger *slog.Logger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("tlsroots: read dir %s: %w", dir, err)
	}
	total := 0
	for _, e := range entries {
		if e.IsDir() || !caExtensions[filepath.Ext(e.Name())] {
			continue
		}
		n, err := appendFile(pool, filepath.Join(dir, e.Name()))
		if err != nil {
			logger.Warn("skipping unreadable CA file", "file", e.Name(), "error", err)
			continue
		}
		total += n
	}
	return total, nil
}

// Roots returns the system pool extended with the configured CAs. Hosts
// without a system pool start from an empty one.
func Roots(cfg Config, logger *slog.Logger) (*x509.CertPool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		logger.Debug("system roots unavailable", "error", err)
		pool = x509.NewCertPool()
	}

	added := 0
	if cfg.CAFile != "" {
		n, err := appendFile(pool, cfg.CAFile)
		if err != nil {
			return nil, err
		}
		added += n
	}
	if cfg.CADir != "" {
		n, err := appendDir(pool, cfg.CADir, logger)
		if err != nil {
			return nil, err
		}
		added += n
	}
	if added > 0 {
		logger.Debug("extra CA certificates loaded", "count", added)
	}
	return pool, nil
}

// ClientConfig builds a client TLS config from cfg. When a client
// certificate is configured it is returned as well; the caller decides
// whether to Watch it and must Stop it. The certificate is nil otherwise.
func ClientConfig(cfg Config, logger *slog.Logger) (*tls.Config, *ClientCert, error) {
	if logger == nil {
		logger = slog.Default()
	}
	roots, err := Roots(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	tlsCfg := &tls.Config{
		RootCAs:    roots,
		ServerName: cfg.ServerName,
		MinVersion: tls.VersionTLS12,
	}

	if cfg.CertFile == "" {
		return tlsCfg, nil, nil
	}
	if cfg.KeyFile == "" {
		return nil, nil, ErrKeyFileRequired
	}
	cc, err := LoadClientCert(cfg.CertFile, cfg.KeyFile, logger)
	if err != nil {
		return nil, nil, err
	}
	tlsCfg.GetClientCertificate = cc.GetClientCertificate
	return tlsCfg, cc, nil
}
