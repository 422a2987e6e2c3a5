package main

import (
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/consolerelay/consolerelay/server/internal/config"
)

// buildOptions maps the build section onto esbuild options. Output is always
// written to disk.
func buildOptions(b config.BuildConfig, plugin api.Plugin) api.BuildOptions {
	opts := api.BuildOptions{
		EntryPoints:       b.EntryPoints,
		Outdir:            b.Outdir,
		Outfile:           b.Outfile,
		Bundle:            b.Bundle,
		MinifyWhitespace:  b.Minify,
		MinifyIdentifiers: b.Minify,
		MinifySyntax:      b.Minify,
		Write:             true,
		LogLevel:          api.LogLevelWarning,
		Plugins:           []api.Plugin{plugin},
	}
	if b.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}
	return opts
}

// outputDir is where the build writes, so the watcher can ignore it.
func outputDir(b config.BuildConfig) string {
	switch {
	case b.Outdir != "":
		return b.Outdir
	case b.Outfile != "":
		return filepath.Dir(b.Outfile)
	}
	return ""
}

func messageTexts(msgs []api.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}
