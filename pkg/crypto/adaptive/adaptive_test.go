package adaptive

import (
	"bytes"
	"errors"
	"testing"
)

var key32 = func() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}()

func allCiphers(t *testing.T) []Cipher {
	t.Helper()
	aes, err := NewAESGCM(key32)
	if err != nil {
		t.Fatalf("NewAESGCM() error = %v", err)
	}
	cc, err := NewChaCha20(key32)
	if err != nil {
		t.Fatalf("NewChaCha20() error = %v", err)
	}
	return []Cipher{aes, cc}
}

func TestNew(t *testing.T) {
	c, err := New(key32)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if typ := c.Type(); typ != CipherAESGCM && typ != CipherChaCha20 {
		t.Errorf("New() returned unknown cipher type: %s", typ)
	}
}

func TestNewWithType(t *testing.T) {
	tests := []struct {
		name    string
		typ     CipherType
		wantErr bool
	}{
		{"aes-gcm", CipherAESGCM, false},
		{"chacha20", CipherChaCha20, false},
		{"unknown", "rot13", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewWithType(key32, tt.typ)
			if tt.wantErr {
				if err == nil {
					t.Error("NewWithType() should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWithType() error = %v", err)
			}
			if c.Type() != tt.typ {
				t.Errorf("Type() = %s, want %s", c.Type(), tt.typ)
			}
		})
	}
}

func TestKeySizes(t *testing.T) {
	tests := []struct {
		name    string
		ctor    func([]byte) (Cipher, error)
		size    int
		wantErr bool
	}{
		{"aes 16", NewAESGCM, 16, false},
		{"aes 24", NewAESGCM, 24, false},
		{"aes 31", NewAESGCM, 31, true},
		{"chacha 32", NewChaCha20, 32, false},
		{"chacha 16", NewChaCha20, 16, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.ctor(make([]byte, tt.size))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKeySize) {
					t.Errorf("error = %v, want ErrInvalidKeySize", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error = %v", err)
			}
		})
	}
}

func TestEncryptDecrypt(t *testing.T) {
	inputs := []struct {
		name string
		pt   []byte
		aad  []byte
	}{
		{"Empty", []byte{}, nil},
		{"Simple", []byte("hello world"), nil},
		{"With AAD", []byte("secret data"), []byte("dinekit_secure_auth_token")},
		{"Large", bytes.Repeat([]byte("A"), 4096), nil},
	}

	for _, c := range allCiphers(t) {
		for _, in := range inputs {
			t.Run(string(c.Type())+"/"+in.name, func(t *testing.T) {
				ct, err := c.Encrypt(in.pt, in.aad)
				if err != nil {
					t.Fatalf("Encrypt() error = %v", err)
				}
				if len(ct) != len(in.pt)+c.NonceSize()+c.Overhead() {
					t.Errorf("ciphertext length = %d", len(ct))
				}

				pt, err := c.Decrypt(ct, in.aad)
				if err != nil {
					t.Fatalf("Decrypt() error = %v", err)
				}
				if !bytes.Equal(pt, in.pt) {
					t.Errorf("Decrypt() = %q, want %q", pt, in.pt)
				}
			})
		}
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	for _, c := range allCiphers(t) {
		t.Run(string(c.Type()), func(t *testing.T) {
			ct, err := c.Encrypt([]byte("secret message"), []byte("aad"))
			if err != nil {
				t.Fatal(err)
			}

			tampered := bytes.Clone(ct)
			tampered[len(tampered)-1] ^= 0xFF
			if _, err := c.Decrypt(tampered, []byte("aad")); err == nil {
				t.Error("Decrypt() should fail for tampered ciphertext")
			}

			if _, err := c.Decrypt(ct, []byte("other aad")); err == nil {
				t.Error("Decrypt() should fail for wrong AAD")
			}

			if _, err := c.Decrypt(ct[:c.NonceSize()-1], nil); !errors.Is(err, ErrCiphertextTooShort) {
				t.Errorf("short input error = %v, want ErrCiphertextTooShort", err)
			}
		})
	}
}

func TestEncrypt_NonceUniqueness(t *testing.T) {
	c := allCiphers(t)[0]
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		ct, err := c.Encrypt([]byte("same plaintext"), nil)
		if err != nil {
			t.Fatal(err)
		}
		if seen[string(ct)] {
			t.Fatal("Encrypt() produced duplicate ciphertext")
		}
		seen[string(ct)] = true
	}
}

func TestDeriveKey(t *testing.T) {
	salt := []byte("salt")
	info := []byte("info")

	k1, err := DeriveKey([]byte("fingerprint"), salt, info)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if len(k1) != KeySize {
		t.Fatalf("key length = %d, want %d", len(k1), KeySize)
	}

	k2, _ := DeriveKey([]byte("fingerprint"), salt, info)
	if !bytes.Equal(k1, k2) {
		t.Error("DeriveKey() is not deterministic")
	}

	k3, _ := DeriveKey([]byte("other device"), salt, info)
	if bytes.Equal(k1, k3) {
		t.Error("different material produced the same key")
	}

	k4, _ := DeriveKey([]byte("fingerprint"), salt, []byte("other info"))
	if bytes.Equal(k1, k4) {
		t.Error("different info produced the same key")
	}

	if _, err := DeriveKey(nil, salt, info); err == nil {
		t.Error("DeriveKey(nil) should fail")
	}
}

func TestSealOpen(t *testing.T) {
	c := allCiphers(t)[1]

	sealed, err := Seal(c, []byte(`"abc123"`), []byte("k"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	pt, err := Open(c, sealed, []byte("k"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if string(pt) != `"abc123"` {
		t.Errorf("Open() = %s", pt)
	}

	if _, err := Open(c, "%%%not base64", []byte("k")); err == nil {
		t.Error("Open() should fail on invalid base64")
	}

	other, _ := NewChaCha20(make([]byte, 32))
	if _, err := Open(other, sealed, []byte("k")); err == nil {
		t.Error("Open() with another key should fail")
	}
}

func BenchmarkEncrypt_1KB(b *testing.B) {
	c, _ := New(key32)
	pt := bytes.Repeat([]byte("A"), 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Encrypt(pt, nil)
	}
}
