package esbuildhost

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
)

type tap struct {
	name string
	fn   func(string) string
}

// compilation collects the startup taps of one build.
type compilation struct {
	mu   sync.Mutex
	taps []tap
}

func (c *compilation) TapStartup(name string, fn func(source string) string) {
	c.mu.Lock()
	c.taps = append(c.taps, tap{name: name, fn: fn})
	c.mu.Unlock()
}

// apply runs every tap over each script in files and returns the rewritten
// set. Files that are not scripts pass through untouched unless they are the
// linked source map of a script whose line numbers moved.
func (c *compilation) apply(files []api.OutputFile) []api.OutputFile {
	c.mu.Lock()
	taps := c.taps
	c.mu.Unlock()
	if len(taps) == 0 {
		return files
	}

	byPath := make(map[string]int, len(files))
	for i, f := range files {
		byPath[f.Path] = i
	}

	out := make([]api.OutputFile, len(files))
	copy(out, files)
	for i, f := range files {
		if !isScript(f.Path) {
			continue
		}
		src := string(f.Contents)
		res := src
		for _, t := range taps {
			res = t.fn(res)
		}
		if res == src {
			continue
		}
		out[i] = api.OutputFile{Path: f.Path, Contents: []byte(res), Hash: f.Hash}

		j, ok := byPath[f.Path+".map"]
		if !ok {
			continue
		}
		lines, ok := prependedLines(src, res)
		if !ok {
			slog.Warn("esbuildhost: source map left unshifted", "file", f.Path)
			continue
		}
		shifted, err := shiftSourceMap(out[j].Contents, lines)
		if err != nil {
			slog.Warn("esbuildhost: shift source map", "file", out[j].Path, "err", err)
			continue
		}
		out[j] = api.OutputFile{Path: out[j].Path, Contents: shifted, Hash: out[j].Hash}
	}
	return out
}

// prependedLines reports how many whole lines were added in front of src to
// produce res. It fails when res is not src with a newline-terminated prefix.
func prependedLines(src, res string) (int, bool) {
	if !strings.HasSuffix(res, src) {
		return 0, false
	}
	prefix := res[:len(res)-len(src)]
	if prefix != "" && !strings.HasSuffix(prefix, "\n") {
		return 0, false
	}
	return strings.Count(prefix, "\n"), true
}

// shiftSourceMap moves every mapping of a version 3 source map down by n
// generated lines. Each ';' in "mappings" starts a new generated line.
func shiftSourceMap(data []byte, n int) ([]byte, error) {
	if n == 0 {
		return data, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	var mappings string
	if raw, ok := m["mappings"]; ok {
		if err := json.Unmarshal(raw, &mappings); err != nil {
			return nil, err
		}
	}
	raw, err := json.Marshal(strings.Repeat(";", n) + mappings)
	if err != nil {
		return nil, err
	}
	m["mappings"] = raw
	return json.Marshal(m)
}
