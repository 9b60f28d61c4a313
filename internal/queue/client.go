package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Fanout sends a message to every client and returns the first error.
type Fanout []Client

// Send delivers msg to all clients even when one of them fails.
func (f Fanout) Send(ctx context.Context, msg Message) error {
	var first error
	for _, c := range f {
		if c == nil {
			continue
		}
		if err := c.Send(ctx, msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Client = Fanout(nil)
