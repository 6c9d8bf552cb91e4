package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Entropy of generated tokens, in bytes before encoding.
const (
	TokenSize128 = 16
	TokenSize256 = 32
)

// RandomBytes reads n bytes from the system RNG.
func RandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("token size must be positive, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return buf, nil
}

// GenerateToken returns n random bytes as unpadded base64url, suitable for
// refresh tokens and mailed one-time links.
func GenerateToken(n int) (string, error) {
	buf, err := RandomBytes(n)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGenerateToken panics when the RNG fails.
func MustGenerateToken(n int) string {
	tok, err := GenerateToken(n)
	if err != nil {
		panic("cryptox: " + err.Error())
	}
	return tok
}

// BackupCode returns a single-use MFA recovery code such as "3f9a-c210".
func BackupCode() (string, error) {
	buf, err := RandomBytes(4)
	if err != nil {
		return "", err
	}
	h := hex.EncodeToString(buf)
	return h[:4] + "-" + h[4:], nil
}
