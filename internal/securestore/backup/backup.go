package backup

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/yndnr/dinekit-go/internal/securestore"
	"github.com/yndnr/dinekit-go/pkg/crypto/adaptive"
)

var magic = []byte("DKBACKUP")

const (
	formatVersion = 1
	checksumSize  = sha256.Size

	// MinPassphraseLength is the shortest accepted passphrase.
	MinPassphraseLength = 8

	saltLength    = 16
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4

	// maxHeader bounds the header read from untrusted input.
	maxHeader = 4096
)

var (
	ErrPassphraseTooShort = errors.New("backup: passphrase too short (minimum 8 characters)")
	ErrNotBackup          = errors.New("backup: not a dinekit backup")
	ErrChecksum           = errors.New("backup: checksum mismatch")
	ErrDecryption         = errors.New("backup: wrong passphrase or corrupted data")
)

// Header describes a backup. It is stored in the clear.
type Header struct {
	Version   int    `json:"version"`
	CreatedAt int64  `json:"created_at"`
	ItemCount int    `json:"item_count"`
	Cipher    string `json:"cipher"`
	Salt      string `json:"salt"`
}

// Created returns the creation time.
func (h Header) Created() time.Time {
	return time.UnixMilli(h.CreatedAt)
}

// deriveKey stretches passphrase with Argon2id.
func deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, adaptive.KeySize)
}

// zero wipes a key after use.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Write seals items with passphrase and writes one backup to w.
func Write(w io.Writer, items []securestore.Item, passphrase []byte) (Header, error) {
	if len(passphrase) < MinPassphraseLength {
		return Header{}, ErrPassphraseTooShort
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return Header{}, fmt.Errorf("backup: salt: %w", err)
	}
	key := deriveKey(passphrase, salt)
	defer zero(key)

	c, err := adaptive.New(key)
	if err != nil {
		return Header{}, fmt.Errorf("backup: cipher: %w", err)
	}

	h := Header{
		Version:   formatVersion,
		CreatedAt: time.Now().UnixMilli(),
		ItemCount: len(items),
		Cipher:    string(c.Type()),
		Salt:      hex.EncodeToString(salt),
	}
	hdr, err := json.Marshal(h)
	if err != nil {
		return Header{}, err
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return Header{}, fmt.Errorf("backup: encode items: %w", err)
	}
	sealed, err := c.Encrypt(payload, hdr)
	if err != nil {
		return Header{}, fmt.Errorf("backup: seal: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(magic)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(hdr)))
	buf.Write(hdr)
	buf.Write(sealed)

	if _, err := w.Write(appendChecksum(buf.Bytes())); err != nil {
		return Header{}, fmt.Errorf("backup: write: %w", err)
	}
	return h, nil
}

// ReadHeader parses the header without the passphrase.
func ReadHeader(r io.Reader) (Header, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Header{}, fmt.Errorf("backup: read: %w", err)
	}
	h, _, _, err := parse(data)
	return h, err
}

// Read verifies and decrypts a backup.
func Read(r io.Reader, passphrase []byte) ([]securestore.Item, Header, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Header{}, fmt.Errorf("backup: read: %w", err)
	}
	h, hdr, sealed, err := parse(data)
	if err != nil {
		return nil, Header{}, err
	}

	salt, err := hex.DecodeString(h.Salt)
	if err != nil || len(salt) != saltLength {
		return nil, h, ErrNotBackup
	}
	key := deriveKey(passphrase, salt)
	defer zero(key)

	c, err := adaptive.NewWithType(key, adaptive.CipherType(h.Cipher))
	if err != nil {
		return nil, h, fmt.Errorf("backup: cipher: %w", err)
	}
	payload, err := c.Decrypt(sealed, hdr)
	if err != nil {
		return nil, h, ErrDecryption
	}

	var items []securestore.Item
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, h, fmt.Errorf("backup: decode items: %w", err)
	}
	return items, h, nil
}

// parse splits data into header and sealed payload after checking the
// magic and the checksum.
func parse(data []byte) (Header, []byte, []byte, error) {
	if len(data) < len(magic)+4+checksumSize || !bytes.Equal(data[:len(magic)], magic) {
		return Header{}, nil, nil, ErrNotBackup
	}
	body, sum := data[:len(data)-checksumSize], data[len(data)-checksumSize:]
	want := sha256.Sum256(body)
	if !bytes.Equal(sum, want[:]) {
		return Header{}, nil, nil, ErrChecksum
	}

	rest := body[len(magic):]
	n := binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]
	if n == 0 || n > maxHeader || int(n) > len(rest) {
		return Header{}, nil, nil, ErrNotBackup
	}
	hdr, sealed := rest[:n], rest[n:]

	var h Header
	if err := json.Unmarshal(hdr, &h); err != nil {
		return Header{}, nil, nil, ErrNotBackup
	}
	if h.Version < 1 || h.Version > formatVersion {
		return h, nil, nil, fmt.Errorf("backup: unsupported version %d", h.Version)
	}
	return h, hdr, sealed, nil
}

func appendChecksum(body []byte) []byte {
	sum := sha256.Sum256(body)
	return append(body, sum[:]...)
}
