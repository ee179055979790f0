package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MailgunMailer sends through the Mailgun messages API.
type MailgunMailer struct {
	apiBase string
	domain  string
	apiKey  string
	from    string
	httpc   *http.Client
}

func NewMailgunMailer(apiBase, domain, apiKey, from string, timeout time.Duration) *MailgunMailer {
	return &MailgunMailer{
		apiBase: apiBase,
		domain:  domain,
		apiKey:  apiKey,
		from:    from,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (m *MailgunMailer) Send(ctx context.Context, to, subject, body string) error {
	form := url.Values{
		"from":    {m.from},
		"to":      {to},
		"subject": {subject},
		"text":    {body},
	}

	endpoint := fmt.Sprintf("%s/%s/messages", m.apiBase, m.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build mailgun request: %w", err)
	}
	req.SetBasicAuth("api", m.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("mailgun request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("mailgun returned status %d", resp.StatusCode)
	}
	return nil
}
