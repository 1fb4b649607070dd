package ops

import "context"

// Op is a bot command such as /start.
type Op interface {
	Name() string
	Description() string
	Execute(ctx context.Context, req Request) (Response, error)
}

// Request carries the invoking message to an op.
type Request struct {
	ChatID   int64
	UserID   int64
	UserName string
	Args     string
}

// Response is the text an op sends back to the chat.
type Response struct {
	Text string
	HTML bool // render Text with Telegram's HTML parse mode
}

// Text is a plain-text Response.
func Text(s string) Response {
	return Response{Text: s}
}
