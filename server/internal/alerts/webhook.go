package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// deliver posts a to every configured webhook. Failures are logged only.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		body, err := payload(wh.Type, a)
		if err != nil {
			slog.Warn("alerts: skipping webhook", "type", wh.Type, "err", err)
			continue
		}

		if err := e.post(url, body); err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"err", err,
			)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "rule", a.RuleName, "state", a.State)
	}
}

// payload renders a for the given webhook type.
func payload(kind string, a *Alert) ([]byte, error) {
	switch kind {
	case "slack":
		return json.Marshal(map[string]string{
			"text": fmt.Sprintf("%s *%s* %s", stateIcon(a.State), a.RuleName, a.Message),
		})
	case "teams":
		return json.Marshal(map[string]interface{}{
			"@type":      "MessageCard",
			"@context":   "http://schema.org/extensions",
			"themeColor": severityColor(a.Severity, a.State),
			"summary":    a.RuleName,
			"title":      fmt.Sprintf("console-relay: %s %s", a.RuleName, a.State),
			"text":       a.Message,
		})
	case "http":
		return json.Marshal(map[string]interface{}{"alert": a})
	default:
		return nil, fmt.Errorf("unknown webhook type %q", kind)
	}
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func stateIcon(state string) string {
	if state == "resolved" {
		return ":white_check_mark:"
	}
	return ":rotating_light:"
}

func severityColor(severity, state string) string {
	if state == "resolved" {
		return "2EB67D"
	}
	switch severity {
	case "critical":
		return "E01E5A"
	case "warning":
		return "ECB22E"
	default:
		return "36C5F0"
	}
}
