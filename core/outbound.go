package core

import "time"

// ParseModeHTML asks Telegram to render a message as HTML.
const ParseModeHTML = "HTML"

// OutboundMessage is a message to deliver to a chat.
type OutboundMessage struct {
	ID               string
	ChatID           int64
	ReplyToMessageID int64
	Text             string
	ParseMode        string
	DisablePreview   bool
	Source           string
	CreatedAt        time.Time
}
