// Package notify delivers failure-alert webhooks for the monitor.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Alert is the JSON body posted when a monitor pass finds newly
// failed draft jobs.
type Alert struct {
	AlertID     string      `json:"alert_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	WindowStart time.Time   `json:"window_start"`
	WindowEnd   time.Time   `json:"window_end"`
	FailedJobs  []FailedJob `json:"failed_jobs"`
}

type FailedJob struct {
	ServalBuildID string `json:"serval_build_id"`
	SFProjectID   string `json:"sf_project_id"`
	ProjectName   string `json:"project_name"`
	StartTime     string `json:"start_time"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

type Sender struct {
	client  *http.Client
	url     string
	secret  string
	timeout time.Duration
}

func NewSender(url, secret string, timeout time.Duration) *Sender {
	return &Sender{
		client:  &http.Client{},
		url:     url,
		secret:  secret,
		timeout: timeout,
	}
}

// Send posts the alert with an HMAC signature.
// Headers: X-DraftAudit-Alert-ID, X-DraftAudit-Signature
func (s *Sender) Send(ctx context.Context, alert Alert) error {
	if alert.AlertID == "" {
		alert.AlertID = uuid.New().String()
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	timeout := s.timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxTimeout, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-DraftAudit-Alert-ID", alert.AlertID)
	req.Header.Set("X-DraftAudit-Signature", computeSignature(s.secret, body))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func computeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature is for receivers to verify incoming alerts.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected := computeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
