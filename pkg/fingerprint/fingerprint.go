package fingerprint

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"errors"
)

// ErrNoProbe is returned by Compute when no probe is supplied.
var ErrNoProbe = errors.New("fingerprint: no probe")

// Traits are the device characteristics a fingerprint is derived from.
type Traits struct {
	// Render identifies the rendering surface (a canvas digest in a browser,
	// the machine identity on a host).
	Render    string `json:"render"`
	UserAgent string `json:"user_agent"`
	Locale    string `json:"locale"`
	Screen    string `json:"screen"`
	Timezone  string `json:"timezone"`
}

// Probe gathers the traits of the executing device.
type Probe interface {
	Probe(ctx context.Context) (Traits, error)
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) (Traits, error)

// Probe calls f.
func (f ProbeFunc) Probe(ctx context.Context) (Traits, error) {
	return f(ctx)
}

// StaticProbe always reports the same traits.
type StaticProbe Traits

// Probe returns the fixed traits.
func (p StaticProbe) Probe(context.Context) (Traits, error) {
	return Traits(p), nil
}

// Digest returns the hex-encoded SHA-256 digest of t.
//
// Each field is length-prefixed so that moving bytes between adjacent
// fields changes the digest.
func Digest(t Traits) string {
	h := sha256.New()
	var lenBuf [4]byte
	for _, field := range []string{t.Render, t.UserAgent, t.Locale, t.Screen, t.Timezone} {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(field)))
		h.Write(lenBuf[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Compute probes p and returns the digest of the result.
func Compute(ctx context.Context, p Probe) (string, error) {
	if p == nil {
		return "", ErrNoProbe
	}
	t, err := p.Probe(ctx)
	if err != nil {
		return "", err
	}
	return Digest(t), nil
}

// Equal compares two digests in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
