// Package llm talks to an Ollama-compatible chat endpoint to convert scraped
// website text into calendar-formatted text.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"linkcal/internal/config"
	appLog "linkcal/internal/log"
)

// ErrUnavailable covers every transport, auth or configuration failure of
// the text-understanding service. Callers treat it as "this extraction
// strategy is down", never as a per-event problem.
var ErrUnavailable = errors.New("text-understanding service unavailable")

// Summarizer produces calendar-formatted text from free-form website text.
type Summarizer interface {
	SummarizeToCalendarText(ctx context.Context, text string) (string, error)
}

// Client implements Summarizer against the Ollama /api/chat endpoint.
type Client struct {
	endpoint string
	model    string
	token    string
	client   *http.Client
}

// NewClient builds a Client from config. If cfg.KeyEnv is set but the
// environment variable is empty, the client is still constructed; the
// missing credential surfaces as ErrUnavailable on first use so that a
// misconfigured batch degrades per the best-effort policy instead of
// failing at startup.
func NewClient(cfg config.LLMConfig) *Client {
	token := ""
	if cfg.KeyEnv != "" {
		token = os.Getenv(cfg.KeyEnv)
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		token:    token,
		client: &http.Client{
			// Model inference is slow; allow well beyond the fetch timeout.
			Timeout: 120 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// extractionPrompt instructs the model to emit VEVENT blocks the
// materializer can locate. The surrounding prose the model tends to add is
// harmless: only BEGIN:VEVENT/END:VEVENT pairs are kept downstream.
const extractionPrompt = `Extract all events from the following website content and format them as ICS (iCalendar) format.

Website content:
%s

Please extract:
- Event title
- Start date and time
- End date and time (if available)
- Description (if available)
- Location (if available)

Format the output as valid ICS format. Each event should start with BEGIN:VEVENT and end with END:VEVENT.
Use UTC timezone format (YYYYMMDDTHHMMSSZ) for dates.
If a date is missing, use today's date.
If an end time is missing, assume the event is 1 hour long.

Example format:
BEGIN:VEVENT
DTSTART:20240101T120000Z
DTEND:20240101T130000Z
SUMMARY:Event Title
DESCRIPTION:Event description
LOCATION:Event location
END:VEVENT

Now extract and format all events from the website content:`

// SummarizeToCalendarText sends the scraped text through the chat endpoint
// and returns the model's raw reply. Any transport or auth failure maps to
// ErrUnavailable.
func (c *Client) SummarizeToCalendarText(ctx context.Context, text string) (string, error) {
	if c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("%w: endpoint or model not configured", ErrUnavailable)
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(extractionPrompt, text)},
		},
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encoding request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/chat", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	appLog.Info("llm extraction start", "model", c.model, "input_chars", len(text))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, out.Error)
	}

	appLog.Info("llm extraction done", "model", c.model, "output_chars", len(out.Message.Content))

	return out.Message.Content, nil
}
