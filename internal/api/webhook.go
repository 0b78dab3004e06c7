package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
)

// maxWebhookBody caps webhook payloads at GitHub's documented limit.
const maxWebhookBody = 25 << 20

const signatureHeader = "X-Hub-Signature-256"

// Sign returns the sha256=<hex> HMAC of body, as GitHub sends it.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature compares header with the expected signature in constant
// time. An empty secret never validates.
func ValidSignature(secret, body []byte, header string) bool {
	if len(secret) == 0 || header == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(header))
}

func (s *Server) handleGitHubDeploy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		writeText(w, http.StatusBadRequest, "Unreadable body")
		return
	}

	if !ValidSignature(s.secret, body, r.Header.Get(signatureHeader)) {
		s.logger.WarnContext(r.Context(), "github webhook signature mismatch", "remote_addr", r.RemoteAddr)
		writeText(w, http.StatusUnauthorized, "Signature mismatch")
		return
	}

	if r.Header.Get("X-GitHub-Event") == "ping" {
		writeText(w, http.StatusOK, "pong")
		return
	}

	if s.redeployer == nil {
		writeText(w, http.StatusNotImplemented, "Deployment not configured")
		return
	}

	s.logger.InfoContext(r.Context(), "github webhook received, redeploying", "delivery", r.Header.Get("X-GitHub-Delivery"))
	out, err := s.redeployer.Redeploy(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "deployment failed", "error", err, "output", out)
		writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	s.logger.InfoContext(r.Context(), "deployment output", "output", out)
	writeText(w, http.StatusOK, "Deployment successful")
}
