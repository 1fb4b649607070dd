package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/jdelaire/autoreply/core/ops"
	"github.com/jdelaire/autoreply/core/policy"
	"github.com/jdelaire/autoreply/core/ratelimit"
	"github.com/jdelaire/autoreply/core/replies"
)

const (
	opTimeout   = 30 * time.Second
	sendTimeout = 10 * time.Second
)

// Dispatcher filters inbound messages and hands them to a command op or to
// the keyword router. It handles one message at a time.
type Dispatcher struct {
	policy  *policy.Policy
	ops     *ops.Registry
	router  *replies.Router
	limiter *ratelimit.Limiter
	sender  Sender
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher. limiter may be nil.
func NewDispatcher(pol *policy.Policy, opsReg *ops.Registry, router *replies.Router, limiter *ratelimit.Limiter, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		policy:  pol,
		ops:     opsReg,
		router:  router,
		limiter: limiter,
		sender:  sender,
		logger:  logger,
	}
}

// Handle processes an inbound message. It never returns an error; failures
// are logged and the message is dropped.
func (d *Dispatcher) Handle(msg InboundMessage) {
	if err := d.policy.Authorize(msg.ChatID, msg.UpdateID, msg.Timestamp); err != nil {
		d.logger.Debug("message rejected by policy", "chat_id", msg.ChatID, "error", err)
		return
	}

	if cmd, args, ok := parseCommand(msg.Text); ok {
		d.handleCommand(msg, cmd, args)
		return
	}
	d.handleText(msg)
}

func (d *Dispatcher) handleCommand(msg InboundMessage, cmd, args string) {
	op := d.ops.Get(cmd)
	if op == nil {
		d.logger.Debug("unknown command ignored", "command", cmd, "chat_id", msg.ChatID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	resp, err := op.Execute(ctx, ops.Request{
		ChatID:   msg.ChatID,
		UserID:   msg.UserID,
		UserName: msg.UserName,
		Args:     args,
	})
	if err != nil {
		d.logger.Error("command failed", "command", cmd, "error", err)
		d.send(OutboundMessage{
			ChatID: msg.ChatID,
			Text:   fmt.Sprintf("Error running /%s: %s", cmd, err),
			Source: "command",
		})
		return
	}

	out := OutboundMessage{
		ChatID:         msg.ChatID,
		Text:           resp.Text,
		DisablePreview: true,
		Source:         "command",
	}
	if resp.HTML {
		out.ParseMode = ParseModeHTML
	}
	d.send(out)
}

func (d *Dispatcher) handleText(msg InboundMessage) {
	reply, keyword, ok := d.router.Route(msg.Text)
	if !ok {
		return
	}

	if err := d.limiter.Allow(msg.ChatID); err != nil {
		d.logger.Warn("reply suppressed", "keyword", keyword, "chat_id", msg.ChatID, "error", err)
		return
	}

	d.logger.Info("keyword detected, replying", "keyword", keyword, "chat_id", msg.ChatID)
	d.send(OutboundMessage{
		ChatID:           msg.ChatID,
		ReplyToMessageID: msg.MessageID,
		Text:             reply,
		Source:           "keyword",
	})
}

func (d *Dispatcher) send(out OutboundMessage) {
	out.ID = uuid.NewString()
	out.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, out); err != nil {
		d.logger.Error("failed to send reply", "id", out.ID, "chat_id", out.ChatID, "source", out.Source, "error", err)
		return
	}
	d.logger.Debug("reply sent", "id", out.ID, "chat_id", out.ChatID, "source", out.Source)
}

// parseCommand extracts the command name and arguments from a message.
// It handles "/command", "/command args", and "/command@botname args".
func parseCommand(text string) (cmd, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	text = text[1:] // strip leading "/"
	cmd = text
	if i := strings.IndexFunc(text, unicode.IsSpace); i != -1 {
		cmd = text[:i]
		args = strings.TrimSpace(text[i:])
	}

	// Strip @botname suffix.
	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}

	if cmd == "" {
		return "", "", false
	}
	return strings.ToLower(cmd), args, true
}
