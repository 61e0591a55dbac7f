package shardconfig

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"
)

// Credential is the resolved secret a SecurityKey reference points to.
type Credential struct {
	Username string
	Password string
}

// Vault resolves a SecurityKey reference (ConnectionConfig.SecurityKey) into
// a concrete Credential. Implementations vary by deployment: env-backed for
// local development, an envelope-encrypted store for production.
type Vault interface {
	Resolve(securityKey string) (Credential, error)
}

// EnvVault looks up "<PREFIX><SecurityKey>_USER" and "..._PASSWORD"
// environment variables directly, for local development and tests.
type EnvVault struct {
	Prefix string
}

func (v EnvVault) Resolve(securityKey string) (Credential, error) {
	user, ok := os.LookupEnv(v.Prefix + securityKey + "_USER")
	if !ok {
		return Credential{}, fmt.Errorf("shardconfig: no credential for security key %q", securityKey)
	}
	pass := os.Getenv(v.Prefix + securityKey + "_PASSWORD")
	return Credential{Username: user, Password: pass}, nil
}

// EncryptedEnvVault resolves a SecurityKey to an environment variable
// holding "<nonce-hex>:<ciphertext-base64>", decrypted with AES-GCM under a
// key derived from MasterSecret via HKDF-SHA256. This lets an operator ship
// encrypted credential blobs through ordinary environment variables or
// ConfigMap-sourced env files without the master secret ever touching disk
// alongside them.
type EncryptedEnvVault struct {
	Prefix       string
	MasterSecret []byte
}

// Resolve decrypts "<Prefix><securityKey>" into a "username:password" pair.
func (v EncryptedEnvVault) Resolve(securityKey string) (Credential, error) {
	raw, ok := os.LookupEnv(v.Prefix + securityKey)
	if !ok {
		return Credential{}, fmt.Errorf("shardconfig: no credential for security key %q", securityKey)
	}

	plaintext, err := v.decrypt(securityKey, raw)
	if err != nil {
		return Credential{}, fmt.Errorf("shardconfig: decrypt credential %q: %w", securityKey, err)
	}

	user, pass, ok := splitCredential(plaintext)
	if !ok {
		return Credential{}, fmt.Errorf("shardconfig: credential %q is not in username:password form", securityKey)
	}
	return Credential{Username: user, Password: pass}, nil
}

func (v EncryptedEnvVault) decrypt(securityKey, raw string) (string, error) {
	nonceHex, ciphertextB64, ok := splitOnce(raw, ':')
	if !ok {
		return "", fmt.Errorf("malformed payload, want <nonce-hex>:<ciphertext-b64>")
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	key, err := deriveKey(v.MasterSecret, securityKey)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	return string(plaintext), nil
}

// deriveKey derives a per-key-name 32-byte AES-256 key from the master
// secret via HKDF, so every SecurityKey gets an independent key even though
// every one shares the same master secret.
func deriveKey(masterSecret []byte, securityKey string) ([]byte, error) {
	reader := hkdf.New(sha256.New, masterSecret, nil, []byte("shardconfig/"+securityKey))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

func splitOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func splitCredential(plaintext string) (user, pass string, ok bool) {
	return splitOnce(plaintext, ':')
}
