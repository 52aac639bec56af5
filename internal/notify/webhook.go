package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"silorecon/internal/config"
)

// Webhook posts the outcome as JSON, e.g. to a Power Automate HTTP trigger.
type Webhook struct {
	url       string
	headers   map[string]string
	reportURL string
	client    *http.Client
	log       *zap.Logger
}

type webhookPayload struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	ReportLink  string  `json:"report_link,omitempty"`
	Job         string  `json:"job"`
	RunID       string  `json:"run_id"`
	Table       string  `json:"table"`
	Rows        int64   `json:"rows"`
	MatchRate   float64 `json:"match_rate"`
	Fingerprint string  `json:"fingerprint"`
	DurationMS  int64   `json:"duration_ms"`
}

func newWebhook(o config.Options, log *zap.Logger) (Notifier, error) {
	u := o.String("url", "")
	if u == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	return &Webhook{
		url:       u,
		headers:   o.StringMap("headers"),
		reportURL: o.String("report_url", ""),
		client:    httpClient(o),
		log:       log,
	}, nil
}

// Notify implements Notifier. Any 2xx response counts as delivered.
func (w *Webhook) Notify(ctx context.Context, o Outcome) error {
	if err := w.post(ctx, o); err != nil {
		return &NotifyError{Strategy: "webhook", Err: err}
	}
	w.log.Info("webhook triggered")
	return nil
}

func (w *Webhook) post(ctx context.Context, o Outcome) error {
	payload, err := json.Marshal(webhookPayload{
		Status:      "success",
		Message:     fmt.Sprintf("%s load completed", o.Table),
		ReportLink:  reportURL(o, w.reportURL),
		Job:         o.Job,
		RunID:       o.RunID,
		Table:       o.Table,
		Rows:        o.Rows,
		MatchRate:   o.MatchRate,
		Fingerprint: o.Fingerprint,
		DurationMS:  o.Duration.Milliseconds(),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}
