package core

import "context"

// Receiver delivers inbound messages to a MessageHandler until ctx is
// cancelled or the source fails permanently.
type Receiver interface {
	Start(ctx context.Context) error
}
