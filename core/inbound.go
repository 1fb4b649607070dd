package core

import "time"

// InboundMessage is a text message received from Telegram.
type InboundMessage struct {
	UpdateID  int64
	ChatID    int64
	MessageID int64
	UserID    int64
	UserName  string // display name of the sender, may be empty
	Text      string
	Timestamp time.Time
}

// MessageHandler processes an inbound message.
type MessageHandler func(msg InboundMessage)
