package telegram_sender

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jdelaire/autoreply/core"
)

// Sender delivers messages through the Telegram Bot API sendMessage method.
type Sender struct {
	botToken string
	client   *http.Client
	baseURL  string
}

// New creates a Telegram sender for the given bot token.
func New(botToken string) *Sender {
	return &Sender{
		botToken: botToken,
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  "https://api.telegram.org",
	}
}

func (s *Sender) Name() string { return "telegram" }

func (s *Sender) Send(ctx context.Context, msg core.OutboundMessage) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	form := url.Values{
		"chat_id": {strconv.FormatInt(msg.ChatID, 10)},
		"text":    {msg.Text},
	}
	if msg.ReplyToMessageID != 0 {
		form.Set("reply_to_message_id", strconv.FormatInt(msg.ReplyToMessageID, 10))
		// Still deliver if the original message was deleted meanwhile.
		form.Set("allow_sending_without_reply", "true")
	}
	if msg.ParseMode != "" {
		form.Set("parse_mode", msg.ParseMode)
	}
	if msg.DisablePreview {
		form.Set("disable_web_page_preview", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			OK          bool   `json:"ok"`
			Description string `json:"description"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, body.Description)
	}

	return nil
}

// WithBaseURL sets a custom base URL (for testing).
func (s *Sender) WithBaseURL(baseURL string) *Sender {
	s.baseURL = baseURL
	return s
}
