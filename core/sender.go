package core

import "context"

// Sender delivers outbound messages to the messaging provider.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg OutboundMessage) error
}
