// Package email implements the transport layer behind the email
// notification provider. Three transports are available: Postmark
// (production), plain SMTP (self-hosted relays), and a dev sender that
// writes messages to disk.
//
// Senders classify failures into two buckets that the dispatch engine cares
// about: ErrFailedToSendEmail (transport trouble, retryable) and ErrRejected
// (provider refused the message, not retryable).
package email
