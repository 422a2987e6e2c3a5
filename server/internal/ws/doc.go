// Package ws implements the relay's messaging endpoint.
//
// Hub.ServeHTTP upgrades an HTTP request to a WebSocket connection, adds the
// connection to the shared registry, and removes that same connection when
// it closes. Each connection gets a buffered send queue drained by a write
// pump that also sends ping frames; a read pump discards inbound frames and
// detects disconnects.
//
// Send never blocks: when a connection's queue is full the connection is
// closed and Send reports an error, so one stalled browser cannot hold up a
// broadcast.
//
// Messages are written as text frames containing the JSON event:
//
//	{"type": "warnings", "data": ["..."]}
//
// The upgrader accepts all origins; the relay only listens for local
// development use.
package ws
