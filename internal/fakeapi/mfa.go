package fakeapi

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"net/http"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/cryptox"
	"github.com/aussiebroadwan/jobboard/pkg/httpx"
	"github.com/pquerna/otp/totp"
)

// Issuer names the API in authenticator apps.
const Issuer = "JobBoard"

const backupCodeCount = 8

// checkCode accepts a current TOTP code for secret or an unused backup code,
// which is then spent. TOTP uses the wall clock, not the server clock.
func (s *Server) checkCode(acc *account, secret, code string) bool {
	if secret != "" && totp.Validate(code, secret) {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if acc.backupCodes[code] {
		delete(acc.backupCodes, code)
		return true
	}
	return false
}

func (s *Server) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	acc := s.accounts[userIDFrom(r.Context())]
	enabled := acc.profile.MFAEnabled
	username := acc.profile.Username
	s.mu.Unlock()

	if enabled {
		httpx.WriteError(w, http.StatusBadRequest, "MFA is already enabled", "")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: Issuer, AccountName: username})
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to generate MFA secret", "")
		return
	}

	img, err := key.Image(200, 200)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to generate QR code", "")
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to generate QR code", "")
		return
	}

	s.mu.Lock()
	acc.pendingSecret = key.Secret()
	s.mu.Unlock()

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, boardsdk.MFASetup{
		Secret:     key.Secret(),
		QRCode:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		OTPAuthURL: key.URL(),
	})
}

func (s *Server) handleMFAVerify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil || body.Token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Verification code is required", "")
		return
	}

	s.mu.Lock()
	acc := s.accounts[userIDFrom(r.Context())]
	pending := acc.pendingSecret
	s.mu.Unlock()

	if pending == "" {
		httpx.WriteError(w, http.StatusBadRequest, "MFA setup has not been started", "")
		return
	}
	if !totp.Validate(body.Token, pending) {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid verification code", "")
		return
	}

	codes := make([]string, backupCodeCount)
	for i := range codes {
		codes[i] = backupCode()
	}

	s.mu.Lock()
	acc.mfaSecret = pending
	acc.pendingSecret = ""
	acc.profile.MFAEnabled = true
	acc.backupCodes = make(map[string]bool, len(codes))
	for _, c := range codes {
		acc.backupCodes[c] = true
	}
	s.mu.Unlock()

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":     "MFA enabled successfully",
		"backupCodes": codes,
	})
}

func backupCode() string {
	code, err := cryptox.BackupCode()
	if err != nil {
		panic(err)
	}
	return code
}

func (s *Server) handleMFADisable(w http.ResponseWriter, r *http.Request) {
	var body boardsdk.MFADisableRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	s.mu.Lock()
	acc := s.accounts[userIDFrom(r.Context())]
	enabled := acc.profile.MFAEnabled
	secret := acc.mfaSecret
	s.mu.Unlock()

	if !enabled {
		httpx.WriteError(w, http.StatusBadRequest, "MFA is not enabled", "")
		return
	}
	if !s.checkPassword(acc, body.Password) {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid password", "")
		return
	}
	if !s.checkCode(acc, secret, body.MFAToken) {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid MFA token", "")
		return
	}

	s.mu.Lock()
	acc.profile.MFAEnabled = false
	acc.mfaSecret = ""
	acc.backupCodes = nil
	s.mu.Unlock()

	writeMessage(w, http.StatusOK, "MFA disabled successfully")
}
