// Package notify delivers job summaries to an external webhook.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openclaw/qrcodemaker/store"
)

// WebhookPayload is the JSON body POSTed for each finished job.
type WebhookPayload struct {
	JobID       string `json:"job_id"`
	Mode        string `json:"mode"`
	Source      string `json:"source,omitempty"`
	Target      string `json:"target"`
	Format      string `json:"format"`
	Size        int    `json:"size"`
	Code        string `json:"code"`
	Error       string `json:"error,omitempty"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
	Skipped     int    `json:"skipped"`
	FailedLines []int  `json:"failed_lines,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// WebhookSender POSTs job summaries to a configured URL.
type WebhookSender struct {
	url    string
	client *http.Client
	log    *slog.Logger
}

// NewWebhookSender creates a WebhookSender for url. If url is empty the sender
// is a no-op (NotifyJob returns nil immediately).
func NewWebhookSender(url string, timeout time.Duration, log *slog.Logger) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// NewPayload builds the webhook body for job.
func NewPayload(job *store.Job) *WebhookPayload {
	p := &WebhookPayload{
		JobID:     job.ID,
		Mode:      job.Mode,
		Source:    job.Source,
		Target:    job.Target,
		Format:    job.Format,
		Size:      job.Size,
		Code:      job.Code,
		Error:     job.Error,
		Succeeded: job.Succeeded,
		Failed:    job.Failed,
		Skipped:   job.Skipped,
		Timestamp: job.CreatedAt,
	}
	for _, r := range job.Records {
		if r.Status == store.StatusFailed {
			p.FailedLines = append(p.FailedLines, r.Line)
		}
	}
	return p
}

// NotifyJob delivers the summary of job. A non-2xx response is logged but not
// treated as an error.
func (w *WebhookSender) NotifyJob(job *store.Job) error {
	if w.url == "" {
		return nil
	}

	body, err := json.Marshal(NewPayload(job))
	if err != nil {
		return fmt.Errorf("webhook marshal payload: %w", err)
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		w.log.Error("webhook delivery failed", "error", err, "job_id", job.ID)
		return fmt.Errorf("webhook POST: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		w.log.Info("webhook delivered", "status", resp.StatusCode, "job_id", job.ID)
	} else {
		w.log.Warn("webhook non-2xx response", "status", resp.StatusCode, "job_id", job.ID)
	}
	return nil
}
