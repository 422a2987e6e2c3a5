package esbuildhost

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/consolerelay/consolerelay/server/internal/lifecycle"
)

// PluginName is the esbuild plugin name.
const PluginName = "console-relay"

// Host adapts esbuild's plugin hooks to lifecycle.Host.
type Host struct {
	mu     sync.RWMutex
	starts []func(lifecycle.Compilation)
	dones  []func(lifecycle.Stats)
}

// New creates a Host with no subscribers.
func New() *Host {
	return &Host{}
}

// OnCompilationStart subscribes fn to the start of every build.
func (h *Host) OnCompilationStart(fn func(lifecycle.Compilation)) {
	h.mu.Lock()
	h.starts = append(h.starts, fn)
	h.mu.Unlock()
}

// OnBuildDone subscribes fn to the end of every build.
func (h *Host) OnBuildDone(fn func(lifecycle.Stats)) {
	h.mu.Lock()
	h.dones = append(h.dones, fn)
	h.mu.Unlock()
}

// Plugin returns the esbuild plugin driving h. The same plugin may be used by
// several build contexts; each keeps its own compilation state.
func (h *Host) Plugin() api.Plugin {
	return api.Plugin{Name: PluginName, Setup: h.setup}
}

func (h *Host) setup(build api.PluginBuild) {
	write := build.InitialOptions.Write
	build.InitialOptions.Write = false

	var (
		mu  sync.Mutex
		cur *compilation
	)

	build.OnStart(func() (api.OnStartResult, error) {
		c := &compilation{}
		h.mu.RLock()
		starts := h.starts
		h.mu.RUnlock()
		for _, fn := range starts {
			fn(c)
		}
		mu.Lock()
		cur = c
		mu.Unlock()
		return api.OnStartResult{}, nil
	})

	build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
		mu.Lock()
		c := cur
		cur = nil
		mu.Unlock()

		var end api.OnEndResult
		if c != nil && len(result.Errors) == 0 {
			result.OutputFiles = c.apply(result.OutputFiles)
		}
		if write && len(result.Errors) == 0 {
			if err := writeOutputs(result.OutputFiles); err != nil {
				msg := api.Message{PluginName: PluginName, Text: err.Error()}
				end.Errors = append(end.Errors, msg)
				result.Errors = append(result.Errors, msg)
			}
		}

		st := stats{warnings: result.Warnings, errors: result.Errors}
		h.mu.RLock()
		dones := h.dones
		h.mu.RUnlock()
		for _, fn := range dones {
			fn(st)
		}
		return end, nil
	})
}

func writeOutputs(files []api.OutputFile) error {
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
			return fmt.Errorf("esbuildhost: create output dir: %w", err)
		}
		if err := os.WriteFile(f.Path, f.Contents, 0o644); err != nil {
			return fmt.Errorf("esbuildhost: write %s: %w", f.Path, err)
		}
	}
	slog.Debug("esbuildhost: wrote output", "files", len(files))
	return nil
}

// isScript reports whether path is a JavaScript output esbuild can emit.
func isScript(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}
