package shardconfig

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvVaultResolvesCredential(t *testing.T) {
	t.Setenv("SHARD_widgets-read-key_USER", "ro_user")
	t.Setenv("SHARD_widgets-read-key_PASSWORD", "hunter2")

	v := EnvVault{Prefix: "SHARD_"}
	cred, err := v.Resolve("widgets-read-key")
	require.NoError(t, err)
	require.Equal(t, "ro_user", cred.Username)
	require.Equal(t, "hunter2", cred.Password)
}

func TestEnvVaultMissingCredential(t *testing.T) {
	v := EnvVault{Prefix: "SHARD_"}
	_, err := v.Resolve("does-not-exist")
	require.Error(t, err)
}

func encryptForTest(t *testing.T, master []byte, securityKey, plaintext string) string {
	t.Helper()
	key, err := deriveKey(master, securityKey)
	require.NoError(t, err)

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)

	nonce := make([]byte, gcm.NonceSize())
	_, err = rand.Read(nonce)
	require.NoError(t, err)

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + base64.StdEncoding.EncodeToString(ciphertext)
}

func TestEncryptedEnvVaultRoundTrips(t *testing.T) {
	master := []byte("test-master-secret-at-least-this-long")
	payload := encryptForTest(t, master, "widgets-write-key", "rw_user:s3cret")

	t.Setenv("SHARD_ENC_widgets-write-key", payload)

	v := EncryptedEnvVault{Prefix: "SHARD_ENC_", MasterSecret: master}
	cred, err := v.Resolve("widgets-write-key")
	require.NoError(t, err)
	require.Equal(t, "rw_user", cred.Username)
	require.Equal(t, "s3cret", cred.Password)
}

func TestEncryptedEnvVaultWrongMasterSecretFails(t *testing.T) {
	payload := encryptForTest(t, []byte("correct-master-secret-value-here"), "k", "u:p")
	t.Setenv("SHARD_ENC_k", payload)

	v := EncryptedEnvVault{Prefix: "SHARD_ENC_", MasterSecret: []byte("wrong-master-secret-value-here!")}
	_, err := v.Resolve("k")
	require.Error(t, err)
}

func TestEncryptedEnvVaultMalformedPayload(t *testing.T) {
	t.Setenv("SHARD_ENC_bad", "not-a-valid-payload")
	v := EncryptedEnvVault{Prefix: "SHARD_ENC_", MasterSecret: []byte("any-master-secret-value-here!!!")}
	_, err := v.Resolve("bad")
	require.Error(t, err)
}
