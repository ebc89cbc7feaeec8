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

func writeTempFile(t *testing.T, dir, name string, content []byte) DownloadedFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return NewDownloadedFile(path)
}

func TestSHA256SumsVerifier_Success(t *testing.T) {
	dir := t.TempDir()
	target := writeTempFile(t, dir, "app.zip", []byte("hello"))
	sum, err := sha256File(target.Path())
	require.NoError(t, err)
	sums := writeTempFile(t, dir, "SHA256SUMS", []byte(sum+" *app.zip\n"))

	v := NewSHA256SumsVerifier(sums.Path())
	err = v.Verify(VerificationPayload{
		File: target.Path(),
		DownloadedFiles: map[string]DownloadedFile{
			target.Path(): target,
			sums.Path():   sums,
		},
	})
	assert.NoError(t, err)
}

func TestSHA256SumsVerifier_MismatchFails(t *testing.T) {
	dir := t.TempDir()
	target := writeTempFile(t, dir, "app.zip", []byte("hello"))
	sums := writeTempFile(t, dir, "SHA256SUMS", []byte("0000000000000000000000000000000000000000000000000000000000000000 *app.zip\n"))

	v := NewSHA256SumsVerifier(sums.Path())
	err := v.Verify(VerificationPayload{
		File: target.Path(),
		DownloadedFiles: map[string]DownloadedFile{
			target.Path(): target,
			sums.Path():   sums,
		},
	})
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, VerificationFailed, kind)
}

func TestSHA256SumsVerifier_ResolvesRelativeToManifestDir(t *testing.T) {
	dir := t.TempDir()
	target := writeTempFile(t, dir, "release/app.zip", []byte("payload"))
	sum, err := sha256File(target.Path())
	require.NoError(t, err)
	sums := writeTempFile(t, dir, "release/SHA256SUMS", []byte(sum+" *app.zip\n"))

	v := NewSHA256SumsVerifier(sums.Path())
	err = v.Verify(VerificationPayload{
		File: target.Path(),
		DownloadedFiles: map[string]DownloadedFile{
			target.Path(): target,
			sums.Path():   sums,
		},
	})
	assert.NoError(t, err)
}

func generatePEMKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	encoded := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	return pub, priv, encoded
}

func TestMessageDigestVerifier_Success(t *testing.T) {
	_, priv, encodedKey := generatePEMKey(t)
	dir := t.TempDir()
	message := writeTempFile(t, dir, "SHA256SUMS", []byte("digest content"))
	sig := ed25519.Sign(priv, []byte("digest content"))
	digest := writeTempFile(t, dir, "SHA256SUMS.sig", sig)

	v := NewMessageDigestVerifier(message.Path(), digest.Path(), "PEM", "ED25519", encodedKey)
	err := v.Verify(VerificationPayload{
		DownloadedFiles: map[string]DownloadedFile{
			message.Path(): message,
			digest.Path():  digest,
		},
	})
	assert.NoError(t, err)
}

func TestMessageDigestVerifier_TriesMultipleKeys(t *testing.T) {
	_, otherPriv, otherKey := generatePEMKey(t)
	_ = otherPriv
	_, priv, correctKey := generatePEMKey(t)
	dir := t.TempDir()
	message := writeTempFile(t, dir, "SHA256SUMS", []byte("digest content"))
	sig := ed25519.Sign(priv, []byte("digest content"))
	digest := writeTempFile(t, dir, "SHA256SUMS.sig", sig)

	v := NewMessageDigestVerifier(message.Path(), digest.Path(), "PEM", "ED25519", otherKey, correctKey)
	err := v.Verify(VerificationPayload{
		DownloadedFiles: map[string]DownloadedFile{
			message.Path(): message,
			digest.Path():  digest,
		},
	})
	assert.NoError(t, err)
}

func TestMessageDigestVerifier_InvalidSignatureFails(t *testing.T) {
	_, _, encodedKey := generatePEMKey(t)
	dir := t.TempDir()
	message := writeTempFile(t, dir, "SHA256SUMS", []byte("digest content"))
	digest := writeTempFile(t, dir, "SHA256SUMS.sig", []byte("not a real signature padded to 64 bytes xxxxxxxxxxxxxxxxxxxxxxxx"))

	v := NewMessageDigestVerifier(message.Path(), digest.Path(), "PEM", "ED25519", encodedKey)
	err := v.Verify(VerificationPayload{
		DownloadedFiles: map[string]DownloadedFile{
			message.Path(): message,
			digest.Path():  digest,
		},
	})
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, VerificationFailed, kind)
}

func TestVerifier_FilesReturnsAuxiliaryFilenames(t *testing.T) {
	sv := NewSHA256SumsVerifier("SHA256SUMS")
	assert.Equal(t, []string{"SHA256SUMS"}, sv.Files())

	mv := NewMessageDigestVerifier("SHA256SUMS", "SHA256SUMS.sig", "PEM", "ED25519")
	assert.Equal(t, []string{"SHA256SUMS", "SHA256SUMS.sig"}, mv.Files())
}
