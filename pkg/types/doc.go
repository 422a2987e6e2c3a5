// Package types defines the wire types shared by the relay server and the
// terminal agent. An Event is what every subscriber receives after a build.
package types
