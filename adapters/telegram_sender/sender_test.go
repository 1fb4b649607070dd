package telegram_sender

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jdelaire/autoreply/core"
)

func keywordReply() core.OutboundMessage {
	return core.OutboundMessage{
		ID:               "test-id",
		ChatID:           -100123,
		ReplyToMessageID: 77,
		Text:             "Hi there!",
		Source:           "keyword",
		CreatedAt:        time.Now(),
	}
}

// captureServer records the form of the last request.
func captureServer(t *testing.T, status int, body string) (*httptest.Server, *url.Values, *string) {
	t.Helper()
	form := &url.Values{}
	path := new(string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		*form = r.PostForm
		*path = r.URL.Path
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, form, path
}

func TestSender_SendKeywordReply(t *testing.T) {
	srv, form, path := captureServer(t, http.StatusOK, `{"ok":true}`)

	s := New("test-token").WithBaseURL(srv.URL)
	if err := s.Send(context.Background(), keywordReply()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *path != "/bottest-token/sendMessage" {
		t.Errorf("unexpected path: %s", *path)
	}
	checks := map[string]string{
		"chat_id":                     "-100123",
		"text":                        "Hi there!",
		"reply_to_message_id":         "77",
		"allow_sending_without_reply": "true",
		"parse_mode":                  "",
		"disable_web_page_preview":    "",
	}
	for key, want := range checks {
		if got := form.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestSender_SendHTMLCommandResponse(t *testing.T) {
	srv, form, _ := captureServer(t, http.StatusOK, `{"ok":true}`)

	msg := core.OutboundMessage{
		ChatID:         5,
		Text:           "<b>Hello</b>",
		ParseMode:      core.ParseModeHTML,
		DisablePreview: true,
	}
	if err := New("tok").WithBaseURL(srv.URL).Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if form.Get("parse_mode") != "HTML" {
		t.Errorf("parse_mode = %q, want HTML", form.Get("parse_mode"))
	}
	if form.Get("disable_web_page_preview") != "true" {
		t.Errorf("disable_web_page_preview = %q, want true", form.Get("disable_web_page_preview"))
	}
	if form.Has("reply_to_message_id") {
		t.Error("reply_to_message_id should be omitted")
	}
}

func TestSender_SendAPIError(t *testing.T) {
	srv, _, _ := captureServer(t, http.StatusBadRequest, `{"ok":false,"description":"Bad Request: chat not found"}`)

	err := New("test-token").WithBaseURL(srv.URL).Send(context.Background(), keywordReply())
	if err == nil {
		t.Fatal("expected error for API error response")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSender_SendNetworkError(t *testing.T) {
	s := New("test-token").WithBaseURL("http://127.0.0.1:1")
	if err := s.Send(context.Background(), keywordReply()); err == nil {
		t.Fatal("expected error for network failure")
	}
}

func TestSender_RespectsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := New("tok").WithBaseURL(srv.URL).Send(ctx, keywordReply()); err == nil {
		t.Fatal("expected error when context expires")
	}
}

func TestSender_Name(t *testing.T) {
	if name := New("token").Name(); name != "telegram" {
		t.Errorf("expected name 'telegram', got %s", name)
	}
}
