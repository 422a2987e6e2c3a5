// Package registry tracks the browser connections currently subscribed to
// build diagnostics.
//
// Registry keeps connections in arrival order. Add appends, Remove deletes by
// identity (any position, including the first) and is a no-op for unknown
// connections. All yields a snapshot taken when iteration starts, so
// connects and disconnects racing with a broadcast never cause an entry to be
// skipped or visited twice.
//
// Registry is safe for concurrent use.
package registry
