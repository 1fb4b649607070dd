package ops

import (
	"context"
	"fmt"
	"html"
	"path/filepath"
)

// StartOp greets the user and explains how the bot works.
type StartOp struct {
	ReplyFile string
}

func (s *StartOp) Name() string        { return "start" }
func (s *StartOp) Description() string { return "Show what this bot does" }

func (s *StartOp) Execute(_ context.Context, req Request) (Response, error) {
	text := fmt.Sprintf("Hi %s!\n\n"+
		"I am the <b>Auto Reply Bot</b>.\n"+
		"I will automatically reply to messages containing specific keywords.\n\n"+
		"⚙️ Keywords and replies are configured in the <code>%s</code> file.\n"+
		"✅ This bot works in both private chats and groups.\n\n"+
		"Just send your message!",
		mention(req.UserID, req.UserName),
		html.EscapeString(filepath.Base(s.ReplyFile)))
	return Response{Text: text, HTML: true}, nil
}

// mention renders an HTML link that Telegram shows as a user mention.
func mention(userID int64, name string) string {
	if name == "" {
		name = "there"
	}
	if userID == 0 {
		return html.EscapeString(name)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, html.EscapeString(name))
}
