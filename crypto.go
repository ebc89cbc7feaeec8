package update

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"io"
	"os"
)

// sha256File computes the hex-encoded SHA-256 hash of the file at path.
func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// parsePublicKey decodes an encoded public key given its format (currently
// only "PEM" is understood) and its key type (currently only "ED25519").
func parsePublicKey(encoded, keyFormat, keyType string) (ed25519.PublicKey, error) {
	if keyFormat != "PEM" {
		return nil, wrapErr(Misconfigured, "unsupported key format "+keyFormat, nil)
	}
	if keyType != "ED25519" {
		return nil, wrapErr(Misconfigured, "unsupported key type "+keyType, nil)
	}
	block, _ := pem.Decode([]byte(encoded))
	if block == nil {
		return nil, wrapErr(Misconfigured, "failed to decode PEM block", nil)
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, wrapErr(Misconfigured, "failed to parse public key", err)
	}
	key, ok := pub.(ed25519.PublicKey)
	if !ok {
		return nil, wrapErr(Misconfigured, "public key is not an ED25519 key", nil)
	}
	return key, nil
}

// verifySignature reports whether signature validates message under key.
func verifySignature(key ed25519.PublicKey, signature, message []byte) bool {
	return ed25519.Verify(key, message, signature)
}

// sha256sumEntry is one parsed line of a sha256sum-format manifest.
type sha256sumEntry struct {
	hash string
	path string
}

// parseSHA256Sums parses a file in the sha256sum format: each non-blank,
// non-CR line is "<64-hex-lower> SP \"*\" <path>". "/" in path is
// normalized to the local separator. Unlike some historical
// implementations of this parser, the final entry is emitted at EOF even
// when the file lacks a trailing newline.
func parseSHA256Sums(data []byte) []sha256sumEntry {
	var (
		entries  []sha256sumEntry
		hashBuf  []byte
		pathBuf  []byte
		state    int // 0 = reading hash, 1 = expecting '*', 2 = reading path
	)
	flush := func() {
		if state == 2 {
			entries = append(entries, sha256sumEntry{hash: string(hashBuf), path: string(pathBuf)})
		}
		hashBuf = nil
		pathBuf = nil
		state = 0
	}
	for _, c := range data {
		if (c == '\r' || c == '\n') && state != 2 {
			flush()
			continue
		}
		switch state {
		case 0:
			if c == ' ' {
				state = 1
				continue
			}
			hashBuf = append(hashBuf, c)
			continue
		case 1:
			if c == '*' {
				state = 2
			}
			continue
		case 2:
			if c == '\r' || c == '\n' {
				flush()
				continue
			}
			if c == '/' {
				pathBuf = append(pathBuf, filepathSeparator)
			} else {
				pathBuf = append(pathBuf, c)
			}
			continue
		}
	}
	flush()
	return entries
}
