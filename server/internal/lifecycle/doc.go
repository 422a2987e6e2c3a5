// Package lifecycle connects a bundler's build hooks to the relay.
//
// A bundler is modelled as a Host exposing two capabilities: a callback when
// a compilation starts (with a Compilation whose startup code can be
// transformed) and a callback when a build finishes (with Stats that reduce
// to a Summary of warnings and errors). Adapter subscribes to both: it asks
// the Injector to tap each new compilation and forwards every finished
// build's warnings and then errors to the Broadcaster, even when a list is
// empty.
package lifecycle
