package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

const postTimeout = 5 * time.Second

// Slack posts a short job summary to an incoming-webhook URL. It is strictly
// fire-and-forget: every failure is logged and swallowed, and an empty URL
// disables it entirely. Nothing here can affect job state.
type Slack struct {
	WebhookURL string
	Client     *http.Client
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: postTimeout},
	}
}

func (s *Slack) JobCompleted(ctx context.Context, j *domain.Job) {
	if s == nil || s.WebhookURL == "" {
		return
	}
	counts := domain.CountFindings(j.Result)
	text := fmt.Sprintf("bounty_platform: job %s\ntype: %s | project: %s\nsummary: %s",
		j.ID, j.Kind, j.ProjectName, counts.Summary())

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		log.Printf("slack notify: encoding payload: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.WebhookURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("slack notify: building request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		log.Printf("slack notify: post failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("slack notify: webhook returned %d", resp.StatusCode)
	}
}
