package transport

import "context"

// ParseModeHTML enables Telegram's HTML subset (<b>, <i>, <code>, ...).
const ParseModeHTML = "HTML"

type ChatTarget struct {
	ChatID int64
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Sender is the outbound half of a messaging backend.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
