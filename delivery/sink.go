package delivery

import (
	"context"

	"github.com/higress-group/docqa-bot/schema"
)

// Sink is the outbound side of a chat session.
type Sink interface {
	// SendText delivers one message of at most the transport's length limit.
	SendText(ctx context.Context, text string) error
	// SendImage delivers a rendered page with a caption.
	SendImage(ctx context.Context, img schema.PageImage, caption string) error
	// SendProgress shows a transient "working" indicator.
	SendProgress(ctx context.Context) error
}
