// Package telegram delivers operator notifications through the Telegram Bot
// API. Delivery is strictly best-effort: every failure is logged and swallowed
// so a dropped message never fails the request that triggered it.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"keai-site/pkg/keai"
)

const (
	defaultBaseURL = "https://api.telegram.org"

	sendTimeout = 10 * time.Second

	maxErrorBodyBytes = 1024
)

// Config configures the Bot API notifier.
type Config struct {
	// BotToken is the bot credential issued by BotFather.
	BotToken string
	// ChatID is the destination chat.
	ChatID string
	// BaseURL overrides the Bot API endpoint, for tests.
	BaseURL string
	// HTTPClient overrides the transport. Nil uses http.DefaultClient.
	HTTPClient *http.Client
	// Logger is the structured logger. Nil uses slog.Default().
	Logger *slog.Logger
}

// Notifier implements keai.Notifier over the Bot API sendMessage call.
type Notifier struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNotifier validates the config and builds a notifier.
func NewNotifier(cfg Config) (*Notifier, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, fmt.Errorf("new telegram notifier: missing bot token")
	}
	if strings.TrimSpace(cfg.ChatID) == "" {
		return nil, fmt.Errorf("new telegram notifier: missing chat id")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{
		botToken:   strings.TrimSpace(cfg.BotToken),
		chatID:     strings.TrimSpace(cfg.ChatID),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// NotifyLead announces one new lead to the configured chat.
func (n *Notifier) NotifyLead(ctx context.Context, lead keai.Lead) {
	if err := n.send(ctx, formatLead(lead)); err != nil {
		n.logger.Warn("lead notification failed",
			slog.String("lead_id", lead.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (n *Notifier) send(ctx context.Context, text string) error {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	payload, err := json.Marshal(sendMessageRequest{ChatID: n.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	request, err := http.NewRequestWithContext(sendCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := n.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
		return &keai.UpstreamError{Service: "telegram", Status: response.StatusCode, Body: string(detail)}
	}

	return nil
}

func formatLead(lead keai.Lead) string {
	var b strings.Builder
	b.WriteString("New consultation request\n\n")
	writeField(&b, "Company", lead.Company)
	writeField(&b, "Representative", lead.Representative)
	writeField(&b, "Phone", lead.Phone)
	writeField(&b, "Email", lead.Email)
	writeField(&b, "Industry", lead.Industry)
	writeField(&b, "Funding scale", lead.FundingScale)
	if len(lead.FundingTypes) > 0 {
		writeField(&b, "Funding types", strings.Join(lead.FundingTypes, ", "))
	}
	writeField(&b, "Call window", lead.CallWindow)
	if lead.Inquiry != "" {
		b.WriteString("\n" + lead.Inquiry + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.WriteString(label + ": " + value + "\n")
}

var _ keai.Notifier = (*Notifier)(nil)
