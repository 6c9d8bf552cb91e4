package mfasetup

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/url"
	"strings"

	"github.com/pquerna/otp"
)

// Issuer labels the account in authenticator apps when the server sends no
// otpauth URL.
const Issuer = "JobBoard"

// DefaultQRSize is the PNG edge length in pixels.
const DefaultQRSize = 256

const pngDataURLPrefix = "data:image/png;base64,"

// ErrNoSecret is returned when there is nothing to encode yet.
var ErrNoSecret = errors.New("mfasetup: no secret")

// Key returns the TOTP key for the current secret. The server's otpauth URL
// is used when present, otherwise one is built for account.
func (f *Flow) Key(account string) (*otp.Key, error) {
	st := f.State()
	if st.Secret == "" {
		return nil, ErrNoSecret
	}

	raw := st.OTPAuthURL
	if raw == "" {
		raw = keyURL(st.Secret, account)
	}

	key, err := otp.NewKeyFromURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse otpauth url: %w", err)
	}
	return key, nil
}

func keyURL(secret, account string) string {
	if account == "" {
		account = "user"
	}

	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", Issuer)

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + Issuer + ":" + account,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// WriteQRPNG writes the enrollment QR code as a PNG. The server's image is
// used as is when it is a PNG data URL; otherwise the code is rendered from
// the key at size x size pixels.
func (f *Flow) WriteQRPNG(w io.Writer, account string, size int) error {
	st := f.State()

	if data, ok := strings.CutPrefix(st.QRCode, pngDataURLPrefix); ok {
		img, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return fmt.Errorf("decode qr data url: %w", err)
		}
		if _, err := png.DecodeConfig(bytes.NewReader(img)); err != nil {
			return fmt.Errorf("qr data url is not a png: %w", err)
		}
		_, err = w.Write(img)
		return err
	}

	key, err := f.Key(account)
	if err != nil {
		return err
	}

	if size <= 0 {
		size = DefaultQRSize
	}
	img, err := key.Image(size, size)
	if err != nil {
		return fmt.Errorf("render qr: %w", err)
	}
	return png.Encode(w, img)
}
