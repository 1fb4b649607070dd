package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jdelaire/autoreply/core/ops"
	"github.com/jdelaire/autoreply/core/policy"
	"github.com/jdelaire/autoreply/core/ratelimit"
	"github.com/jdelaire/autoreply/core/replies"
)

// --- test helpers ---

type spySender struct {
	mu   sync.Mutex
	sent []OutboundMessage
	err  error
}

func (s *spySender) Name() string { return "spy" }
func (s *spySender) Send(_ context.Context, m OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return s.err
}
func (s *spySender) last() OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return OutboundMessage{}
	}
	return s.sent[len(s.sent)-1]
}
func (s *spySender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type echoOp struct{}

func (e *echoOp) Name() string        { return "echo" }
func (e *echoOp) Description() string { return "echoes args" }
func (e *echoOp) Execute(_ context.Context, req ops.Request) (ops.Response, error) {
	return ops.Text("echo: " + req.Args), nil
}

type errorOp struct{}

func (e *errorOp) Name() string        { return "fail" }
func (e *errorOp) Description() string { return "always fails" }
func (e *errorOp) Execute(_ context.Context, _ ops.Request) (ops.Response, error) {
	return ops.Response{}, fmt.Errorf("something broke")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testDeps struct {
	policy  policy.Config
	limiter *ratelimit.Limiter
	replies map[string]string
}

func newTestDispatcher(spy *spySender, deps testDeps, extraOps ...ops.Op) *Dispatcher {
	reg := ops.NewRegistry()
	reg.Register(extraOps...)
	if deps.replies == nil {
		deps.replies = map[string]string{"hello": "Hi!", "price list": "See the menu"}
	}
	router := replies.NewRouter(replies.FromStrings(deps.replies))
	return NewDispatcher(policy.New(deps.policy), reg, router, deps.limiter, spy, testLogger())
}

var nextUpdateID atomic.Int64

func validMsg(text string) InboundMessage {
	return InboundMessage{
		UpdateID:  nextUpdateID.Add(1),
		ChatID:    100,
		MessageID: 7,
		UserID:    1,
		UserName:  "Ann",
		Text:      text,
		Timestamp: time.Now(),
	}
}

// --- tests ---

func TestDispatchKeywordReply(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{})

	d.Handle(validMsg("Well HELLO there"))

	if spy.count() != 1 {
		t.Fatalf("sent %d, want 1", spy.count())
	}
	got := spy.last()
	if got.Text != "Hi!" {
		t.Errorf("text = %q, want Hi!", got.Text)
	}
	if got.ChatID != 100 || got.ReplyToMessageID != 7 {
		t.Errorf("chat/reply_to = %d/%d, want 100/7", got.ChatID, got.ReplyToMessageID)
	}
	if got.ID == "" {
		t.Error("expected outbound ID to be set")
	}
	if got.ParseMode != "" {
		t.Errorf("parse mode = %q, want plain text", got.ParseMode)
	}
}

func TestDispatchNoKeyword(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{})

	d.Handle(validMsg("goodbye"))

	if spy.count() != 0 {
		t.Errorf("sent %d for unmatched text, want 0", spy.count())
	}
}

func TestDispatchOneReplyPerMessage(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{})

	d.Handle(validMsg("hello, can I see the price list?"))

	if spy.count() != 1 {
		t.Fatalf("sent %d, want exactly 1", spy.count())
	}
	// "price list" is longer than "hello".
	if got := spy.last().Text; got != "See the menu" {
		t.Errorf("text = %q, want the longest keyword's reply", got)
	}
}

func TestDispatchEqualLengthKeywordsPickFirstAlphabetically(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{replies: map[string]string{"price": "P", "hello": "H"}})

	d.Handle(validMsg("price? hello"))

	if spy.count() != 1 {
		t.Fatalf("sent %d, want exactly 1", spy.count())
	}
	if got := spy.last().Text; got != "H" {
		t.Errorf("text = %q, want %q", got, "H")
	}
}

func TestDispatchSendFailureIsAbsorbed(t *testing.T) {
	spy := &spySender{err: errors.New("network down")}
	d := newTestDispatcher(spy, testDeps{})

	d.Handle(validMsg("hello"))
	d.Handle(validMsg("hello again"))

	if spy.count() != 2 {
		t.Errorf("attempted %d sends, want 2", spy.count())
	}
}

func TestDispatchRouterSwapTakesEffect(t *testing.T) {
	spy := &spySender{}
	reg := ops.NewRegistry()
	router := replies.NewRouter(replies.FromStrings(map[string]string{"hello": "Hi!"}))
	d := NewDispatcher(policy.New(policy.Config{}), reg, router, nil, spy, testLogger())

	router.Swap(replies.FromStrings(map[string]string{"hello": "Howdy!"}))
	d.Handle(validMsg("hello"))

	if got := spy.last().Text; got != "Howdy!" {
		t.Errorf("text = %q, want reply from swapped table", got)
	}
}

func TestDispatchCommand(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{}, &echoOp{})

	d.Handle(validMsg("/echo hello world"))

	if spy.count() != 1 {
		t.Fatalf("sent %d, want 1", spy.count())
	}
	if got := spy.last().Text; got != "echo: hello world" {
		t.Errorf("text = %q, want %q", got, "echo: hello world")
	}
}

func TestDispatchCommandIsNotKeywordMatched(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{})

	// Unknown commands are ignored even when they contain a keyword.
	d.Handle(validMsg("/foobar hello"))

	if spy.count() != 0 {
		t.Errorf("sent %d, want 0", spy.count())
	}
}

func TestDispatchStartCommandHTML(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{}, &ops.StartOp{ReplyFile: "config.json"})

	d.Handle(validMsg("/start@autoreply_bot"))

	got := spy.last()
	if got.ParseMode != ParseModeHTML {
		t.Errorf("parse mode = %q, want HTML", got.ParseMode)
	}
	if !got.DisablePreview {
		t.Error("expected link preview disabled")
	}
	if !strings.Contains(got.Text, "tg://user?id=1") {
		t.Errorf("text = %q, want sender mention", got.Text)
	}
}

func TestDispatchOpError(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{}, &errorOp{})

	d.Handle(validMsg("/fail"))

	if spy.count() != 1 {
		t.Fatalf("sent %d, want 1", spy.count())
	}
	if !strings.Contains(spy.last().Text, "Error running /fail") {
		t.Errorf("text = %q, want error message", spy.last().Text)
	}
}

func TestDispatchUnauthorizedChat(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{policy: policy.Config{AllowedChats: []int64{5}}})

	d.Handle(validMsg("hello"))

	if spy.count() != 0 {
		t.Errorf("sent %d messages for unauthorized chat, want 0", spy.count())
	}
}

func TestDispatchStaleMessage(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{policy: policy.Config{MaxAge: 5 * time.Minute}})

	msg := validMsg("hello")
	msg.Timestamp = time.Now().Add(-10 * time.Minute)
	d.Handle(msg)

	if spy.count() != 0 {
		t.Errorf("sent %d for stale message, want 0", spy.count())
	}
}

func TestDispatchDuplicateUpdate(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{})

	msg := validMsg("hello")
	d.Handle(msg)
	d.Handle(msg)

	if spy.count() != 1 {
		t.Errorf("sent %d, want 1 for a redelivered update", spy.count())
	}
}

func TestDispatchReplyLimit(t *testing.T) {
	spy := &spySender{}
	d := newTestDispatcher(spy, testDeps{limiter: ratelimit.New(1, time.Minute)})

	d.Handle(validMsg("hello"))
	d.Handle(validMsg("hello"))

	if spy.count() != 1 {
		t.Errorf("sent %d, want 1 with a limit of one reply per minute", spy.count())
	}
}

// --- parseCommand table tests ---

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantCmd  string
		wantArgs string
		wantOK   bool
	}{
		{"/start", "start", "", true},
		{"/echo hello world", "echo", "hello world", true},
		{"/start@mybot", "start", "", true},
		{"/echo@mybot hello", "echo", "hello", true},
		{"/START", "start", "", true},
		{"  /echo  test  ", "echo", "test", true},
		{"/echo\nnext line", "echo", "next line", true},
		{"not a command", "", "", false},
		{"", "", "", false},
		{"/", "", "", false},
		{"/ hello", "", "", false},
	}

	for _, tt := range tests {
		cmd, args, ok := parseCommand(tt.input)
		if cmd != tt.wantCmd || args != tt.wantArgs || ok != tt.wantOK {
			t.Errorf("parseCommand(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.input, cmd, args, ok, tt.wantCmd, tt.wantArgs, tt.wantOK)
		}
	}
}
