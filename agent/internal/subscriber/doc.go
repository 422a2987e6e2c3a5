// Package subscriber tails a relay's diagnostic stream over WebSocket.
//
// Subscriber.Run() dials the relay's messaging endpoint, decodes every
// {"type","data"} message into a types.Event and hands it to a Sink. When the
// connection fails or drops it reconnects with truncated exponential backoff
// (reconnect_initial→reconnect_max, ±25% jitter), resetting the backoff after
// each successful dial. Messages that do not decode, or carry an unknown
// type, are logged and skipped.
//
// The dial field is injectable for testing.
package subscriber
