package events

import (
	"context"

	"github.com/basalt-run/agentkit/internal/agentloop"
	"github.com/basalt-run/agentkit/internal/session"
)

// RunMinimal is the conformant minimal chat_stream implementation of spec
// §4.5: it runs the non-streaming loop, then emits MessageStart,
// TextComplete(text), MessageEnd on success, or MessageStart then
// Error(msg) on failure. The stream is closed once the terminal event is
// sent.
func RunMinimal(ctx context.Context, loop *agentloop.Loop, sess *session.Session, userText string, stream *Stream) {
	defer stream.Close()

	if err := stream.Send(ctx, MessageStart(sess.ID)); err != nil {
		return
	}

	resp, err := loop.Run(ctx, sess, userText)
	if err != nil {
		_ = stream.Send(ctx, Error(err.Error()))
		return
	}

	if err := stream.Send(ctx, TextComplete(resp.Text)); err != nil {
		return
	}
	_ = stream.Send(ctx, MessageEnd(sess.ID))
}
