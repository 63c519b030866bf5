package notifier

import (
	"context"
	"errors"
	"strings"
	"time"

	kit "formrelay/internal/transport"
	logx "formrelay/pkg/logx"
)

var (
	errEmptyText   = errors.New("text is empty")
	errNoChat      = errors.New("destination chat id is zero")
	errNoTransport = errors.New("no transport configured")
)

// Service sends notifications through a transport.Sender.
//
// It is safe for concurrent use; it holds no mutable state of its own.
type Service struct {
	sender kit.Sender
	log    logx.Logger
}

func New(sender kit.Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{sender: sender, log: log}
}

// Deliver sends text to chatID with HTML rendering enabled.
//
// Failures are not logged here; the caller owns the single operator-facing
// log record for a failed delivery.
func (s *Service) Deliver(ctx context.Context, chatID int64, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	switch {
	case s.sender == nil:
		return &DeliveryError{ChatID: chatID, Err: errNoTransport}
	case chatID == 0:
		return &DeliveryError{ChatID: chatID, Err: errNoChat}
	case strings.TrimSpace(text) == "":
		return &DeliveryError{ChatID: chatID, Err: errEmptyText}
	}

	start := time.Now()
	ref, err := s.sender.SendText(ctx, kit.ChatTarget{ChatID: chatID}, text, &kit.SendOptions{
		ParseMode:      kit.ParseModeHTML,
		DisablePreview: true,
	})
	if err != nil {
		return &DeliveryError{ChatID: chatID, Err: err}
	}
	s.log.Debug("notification delivered",
		logx.Int64("chat_id", chatID),
		logx.Int("message_id", ref.MessageID),
		logx.Duration("took", time.Since(start)),
	)
	return nil
}
