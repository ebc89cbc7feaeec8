package update

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	sum, err := sha256File(path)
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum)
}

func TestParsePublicKey_RejectsUnsupportedFormatsAndTypes(t *testing.T) {
	_, err := parsePublicKey("whatever", "DER", "ED25519")
	assert.Error(t, err)

	_, err = parsePublicKey("whatever", "PEM", "RSA")
	assert.Error(t, err)

	_, err = parsePublicKey("not pem", "PEM", "ED25519")
	assert.Error(t, err)
}

func TestParsePublicKey_ValidPEM(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(priv.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	encoded := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	key, err := parsePublicKey(encoded, "PEM", "ED25519")
	require.NoError(t, err)
	assert.Equal(t, priv.Public(), key)
}

func TestVerifySignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	message := []byte("the message")
	sig := ed25519.Sign(priv, message)

	assert.True(t, verifySignature(pub, sig, message))
	assert.False(t, verifySignature(pub, sig, []byte("tampered")))
}

func TestParseSHA256Sums_BasicLines(t *testing.T) {
	data := []byte(
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824 *a/b.txt\n" +
			"aaaa *c.txt\n")
	entries := parseSHA256Sums(data)
	require.Len(t, entries, 2)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", entries[0].hash)
	assert.Equal(t, filepath.FromSlash("a/b.txt"), entries[0].path)
	assert.Equal(t, "aaaa", entries[1].hash)
	assert.Equal(t, "c.txt", entries[1].path)
}

func TestParseSHA256Sums_EmitsFinalEntryWithoutTrailingNewline(t *testing.T) {
	data := []byte("aaaa *no-trailing-newline.txt")
	entries := parseSHA256Sums(data)
	require.Len(t, entries, 1, "the final entry must be emitted at EOF even without a trailing newline")
	assert.Equal(t, "no-trailing-newline.txt", entries[0].path)
}

func TestParseSHA256Sums_EmptyInput(t *testing.T) {
	entries := parseSHA256Sums([]byte(""))
	assert.Len(t, entries, 0)
}

func TestParseSHA256Sums_IgnoresMalformedLine(t *testing.T) {
	data := []byte("not a sum line without a star\n")
	entries := parseSHA256Sums(data)
	assert.Len(t, entries, 0)
}
