// Package esbuildhost exposes an esbuild build as a lifecycle.Host.
//
// The plugin returned by Host.Plugin takes over writing the build's output:
// it turns off esbuild's own Write, runs the startup taps registered during
// the compilation over every JavaScript output file, and then writes the
// files itself when the caller originally asked for Write. Linked source
// maps are shifted by the number of lines a tap prepends.
//
// One compilation is created per esbuild build (OnStart) and its taps are
// applied once, in registration order, when the build ends (OnEnd). Build-done
// subscribers run after the output has been written.
package esbuildhost
