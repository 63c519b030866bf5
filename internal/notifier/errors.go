package notifier

import (
	"errors"
	"fmt"
)

// ErrDelivery matches every *DeliveryError via errors.Is.
var ErrDelivery = errors.New("notification delivery failed")

// DeliveryError collapses network, auth and backend-rejection failures into
// one category.
type DeliveryError struct {
	ChatID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("deliver to chat %d: %s", e.ChatID, ErrDelivery)
	}
	return fmt.Sprintf("deliver to chat %d: %v", e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }
