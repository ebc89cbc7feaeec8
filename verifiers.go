package update

import (
	"os"
	"path/filepath"
)

// VerificationPayload is handed to a Verifier: the primary filename being
// verified and the full set of files the Downloader has fetched, keyed by
// filename.
type VerificationPayload struct {
	File            string
	DownloadedFiles map[string]DownloadedFile
}

// Verifier is a pluggable predicate over a set of downloaded files that
// either succeeds or returns an error. Files returns the auxiliary
// filenames this verifier needs fetched before it runs.
type Verifier interface {
	Verify(payload VerificationPayload) error
	Files() []string
}

// SHA256SumsVerifier checks the primary file's on-disk SHA-256 against a
// signed manifest in the "SHA256SUMS" format.
type SHA256SumsVerifier struct {
	SumsFilename string
}

// NewSHA256SumsVerifier constructs a manifest verifier for the given
// auxiliary filename.
func NewSHA256SumsVerifier(sumsFilename string) *SHA256SumsVerifier {
	return &SHA256SumsVerifier{SumsFilename: sumsFilename}
}

func (v *SHA256SumsVerifier) Files() []string { return []string{v.SumsFilename} }

func (v *SHA256SumsVerifier) Verify(payload VerificationPayload) error {
	sumsFile, ok := payload.DownloadedFiles[v.SumsFilename]
	if !ok {
		return wrapErr(Misconfigured, "sha256sums file not available: "+v.SumsFilename, nil)
	}
	data, err := sumsFile.Read()
	if err != nil {
		return wrapErr(VerificationFailed, "failed to read sha256sums file", err)
	}
	target, ok := payload.DownloadedFiles[payload.File]
	if !ok {
		return wrapErr(Misconfigured, "file to verify not downloaded: "+payload.File, nil)
	}
	targetAbs, err := filepath.Abs(target.Path())
	if err != nil {
		return wrapErr(VerificationFailed, "failed to resolve absolute path", err)
	}

	sumsDir := filepath.Dir(sumsFile.Path())
	var expectedHash string
	found := false
	for _, entry := range parseSHA256Sums(data) {
		if entry.path == "" {
			continue
		}
		verifyPath := entry.path
		if sumsDir != "." && sumsDir != "" {
			verifyPath = filepath.Join(sumsDir, entry.path)
		}
		verifyAbs, err := filepath.Abs(verifyPath)
		if err != nil {
			continue
		}
		if verifyAbs == targetAbs {
			expectedHash = entry.hash
			found = true
			break
		}
	}
	if !found {
		return wrapErr(VerificationFailed, "file to verify not present in sha256sums file: "+payload.File, nil)
	}
	actualHash, err := sha256File(target.Path())
	if err != nil {
		return wrapErr(VerificationFailed, "failed to hash downloaded file", err)
	}
	if actualHash != expectedHash {
		return wrapErr(VerificationFailed, "sha256 mismatch for "+payload.File+": expected "+expectedHash+", got "+actualHash, nil)
	}
	Logger().Infof("file integrity OK, sha256 hashes match for %s", payload.File)
	return nil
}

// MessageDigestVerifier checks that a detached signature over a message
// file validates under at least one of a set of public keys.
type MessageDigestVerifier struct {
	MessageFilename string
	DigestFilename  string
	KeyFormat       string
	KeyType         string
	EncodedKeys     []string
}

// NewMessageDigestVerifier constructs a signature verifier.
func NewMessageDigestVerifier(messageFilename, digestFilename, keyFormat, keyType string, encodedKeys ...string) *MessageDigestVerifier {
	return &MessageDigestVerifier{
		MessageFilename: messageFilename,
		DigestFilename:  digestFilename,
		KeyFormat:       keyFormat,
		KeyType:         keyType,
		EncodedKeys:     encodedKeys,
	}
}

func (v *MessageDigestVerifier) Files() []string {
	return []string{v.MessageFilename, v.DigestFilename}
}

func (v *MessageDigestVerifier) Verify(payload VerificationPayload) error {
	message, ok := payload.DownloadedFiles[v.MessageFilename]
	if !ok {
		return wrapErr(Misconfigured, "message file not available: "+v.MessageFilename, nil)
	}
	digestFile, ok := payload.DownloadedFiles[v.DigestFilename]
	if !ok {
		return wrapErr(Misconfigured, "digest file not available: "+v.DigestFilename, nil)
	}
	messageBytes, err := os.ReadFile(message.Path())
	if err != nil {
		return wrapErr(VerificationFailed, "failed to read message file", err)
	}
	signature, err := os.ReadFile(digestFile.Path())
	if err != nil {
		return wrapErr(VerificationFailed, "failed to read digest file", err)
	}
	for _, encoded := range v.EncodedKeys {
		key, err := parsePublicKey(encoded, v.KeyFormat, v.KeyType)
		if err != nil {
			return err
		}
		if verifySignature(key, signature, messageBytes) {
			Logger().Infof("file authenticity OK, %s signatures match", v.KeyType)
			return nil
		}
	}
	return wrapErr(VerificationFailed, "invalid "+v.KeyType+" signature for "+v.MessageFilename, nil)
}
