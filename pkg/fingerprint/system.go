package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// DefaultMachineIDPaths are read in order to identify the host.
var DefaultMachineIDPaths = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
}

// ErrNoIdentity is returned when neither a machine id nor a hostname
// can be determined.
var ErrNoIdentity = errors.New("fingerprint: no host identity available")

// SystemProbe derives traits from the host the process runs on.
type SystemProbe struct {
	// Version is embedded in the user agent.
	Version string

	// MachineIDPaths overrides DefaultMachineIDPaths.
	MachineIDPaths []string

	readFile func(string) ([]byte, error)
	getenv   func(string) string
	hostname func() (string, error)
	now      func() time.Time
}

// NewSystemProbe creates a probe for the current host.
func NewSystemProbe(version string) *SystemProbe {
	return &SystemProbe{
		Version:        version,
		MachineIDPaths: DefaultMachineIDPaths,
		readFile:       os.ReadFile,
		getenv:         os.Getenv,
		hostname:       os.Hostname,
		now:            time.Now,
	}
}

// Probe implements Probe.
func (p *SystemProbe) Probe(ctx context.Context) (Traits, error) {
	if err := ctx.Err(); err != nil {
		return Traits{}, err
	}

	render, err := p.render()
	if err != nil {
		return Traits{}, err
	}

	return Traits{
		Render:    render,
		UserAgent: fmt.Sprintf("dinekit/%s (%s; %s)", p.Version, runtime.GOOS, runtime.GOARCH),
		Locale:    p.locale(),
		Screen:    p.screen(),
		Timezone:  p.timezone(),
	}, nil
}

func (p *SystemProbe) render() (string, error) {
	for _, path := range p.MachineIDPaths {
		data, err := p.readFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(data)); id != "" {
			return hashHex("machine-id:" + id), nil
		}
	}

	host, err := p.hostname()
	if err != nil || host == "" {
		return "", ErrNoIdentity
	}
	return hashHex("hostname:" + host), nil
}

func (p *SystemProbe) locale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := p.getenv(name); v != "" {
			return v
		}
	}
	return "C"
}

func (p *SystemProbe) screen() string {
	cols, lines := p.getenv("COLUMNS"), p.getenv("LINES")
	if cols == "" || lines == "" {
		return "unknown"
	}
	return cols + "x" + lines
}

func (p *SystemProbe) timezone() string {
	name, offset := p.now().Zone()
	return fmt.Sprintf("%s%+d", name, offset/60)
}

func hashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
