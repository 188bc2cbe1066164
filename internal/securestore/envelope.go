package securestore

import (
	"encoding/json"
	"time"

	"github.com/yndnr/dinekit-go/pkg/fingerprint"
)

// envelopeVersion is the newest envelope layout this package reads.
const envelopeVersion = 1

// envelope is the JSON document written to a backend.
type envelope struct {
	Version     int    `json:"v"`
	Ciphertext  string `json:"c"`
	Expiry      int64  `json:"exp,omitempty"` // epoch milliseconds
	Fingerprint string `json:"fp,omitempty"`
}

// Invalidation reasons, used as log fields and metric labels.
const (
	reasonCorrupt     = "corrupt"
	reasonVersion     = "version"
	reasonExpired     = "expired"
	reasonFingerprint = "fingerprint"
	reasonDecryption  = "decryption"
	reasonDecode      = "decode"
)

func decodeEnvelope(raw []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// invalidReason returns why env must not be served at now to a device with
// digest fp, or "" when it is valid.
func (env *envelope) invalidReason(now time.Time, fp string) string {
	switch {
	case env.Version < 1 || env.Ciphertext == "":
		return reasonCorrupt
	case env.Version > envelopeVersion:
		return reasonVersion
	case env.Expiry != 0 && !now.Before(time.UnixMilli(env.Expiry)):
		return reasonExpired
	case env.Fingerprint != "" && !fingerprint.Equal(env.Fingerprint, fp):
		return reasonFingerprint
	}
	return ""
}
