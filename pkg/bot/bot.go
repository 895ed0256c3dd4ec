package bot

import "context"

// Sender is the transport capability handed to the core. Delivery is
// fire-and-forget from the caller's point of view; implementations log
// their own failures.
type Sender interface {
	SendMessage(ctx context.Context, userID string, msg Message)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, userID string, msg Message)

func (f SenderFunc) SendMessage(ctx context.Context, userID string, msg Message) {
	f(ctx, userID, msg)
}

// Handler processes one command for one user. A returned error is an
// internal fault; user-facing problems are reported through the sender.
type Handler interface {
	ProcessMessage(ctx context.Context, userID string, msg IncomingMessage, s Sender) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, userID string, msg IncomingMessage, s Sender) error

func (f HandlerFunc) ProcessMessage(ctx context.Context, userID string, msg IncomingMessage, s Sender) error {
	return f(ctx, userID, msg, s)
}
