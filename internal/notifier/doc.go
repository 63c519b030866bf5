// Package notifier delivers text notifications to a chat.
//
// The service hides the messaging backend behind transport.Sender and
// exposes a single synchronous operation, Deliver. Every failure is reported
// as a *DeliveryError so callers can treat the backend as a black box; the
// underlying cause is kept for operator logs only.
//
// There is no queue, retry, or dedup: one Deliver call is one send.
package notifier
