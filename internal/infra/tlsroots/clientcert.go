package tlsroots

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/dinekit-go/internal/infra/confloader"
)

// ClientCert holds a client key pair and swaps it when the files change.
type ClientCert struct {
	certFile, keyFile string
	logger            *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate

	wmu      sync.Mutex
	watchers []*confloader.Watcher
}

// LoadClientCert reads the key pair.
func LoadClientCert(certFile, keyFile string, logger *slog.Logger) (*ClientCert, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &ClientCert{certFile: certFile, keyFile: keyFile, logger: logger}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload reads the key pair again. On error the previous certificate
// stays in use.
func (c *ClientCert) Reload() error {
	cert, err := tls.LoadX509KeyPair(c.certFile, c.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	c.mu.Lock()
	c.cert = &cert
	c.mu.Unlock()
	return nil
}

// GetClientCertificate implements tls.Config.GetClientCertificate.
func (c *ClientCert) GetClientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cert, nil
}

// Watch reloads the pair whenever the certificate or key file is
// written. Rotations write both files, so changes are debounced.
func (c *ClientCert) Watch(debounce time.Duration) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if len(c.watchers) > 0 {
		return nil
	}

	for _, path := range []string{c.certFile, c.keyFile} {
		w, err := confloader.NewWatcher(path,
			confloader.WithDebounce(debounce),
			confloader.WithWatcherLogger(c.logger))
		if err != nil {
			c.stopLocked()
			return fmt.Errorf("tlsroots: watch %s: %w", path, err)
		}
		w.OnChange(func(string) {
			if err := c.Reload(); err != nil {
				c.logger.Error("client certificate reload failed", "cert_file", c.certFile, "error", err)
				return
			}
			c.logger.Info("client certificate reloaded", "cert_file", c.certFile)
		})
		w.StartAsync()
		c.watchers = append(c.watchers, w)
	}
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (c *ClientCert) Stop() error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.stopLocked()
}

func (c *ClientCert) stopLocked() error {
	var errs []error
	for _, w := range c.watchers {
		if err := w.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	c.watchers = nil
	return errors.Join(errs...)
}
