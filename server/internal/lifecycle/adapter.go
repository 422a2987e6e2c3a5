package lifecycle

import "log/slog"

// Injector rewrites a compilation's startup code.
type Injector interface {
	InjectScript(c Compilation)
}

// Broadcaster delivers diagnostics to subscribers.
type Broadcaster interface {
	Warnings(items []string)
	Errors(items []string)
}

// Adapter routes host lifecycle events to the injector and broadcaster.
type Adapter struct {
	injector    Injector
	broadcaster Broadcaster
	onDone      func(Summary)
}

// NewAdapter creates an Adapter. onDone, if non-nil, runs after each build's
// diagnostics have been broadcast.
func NewAdapter(inj Injector, b Broadcaster, onDone func(Summary)) *Adapter {
	return &Adapter{injector: inj, broadcaster: b, onDone: onDone}
}

// Apply subscribes the adapter to h. Call it once per host.
func (a *Adapter) Apply(h Host) {
	h.OnCompilationStart(a.compilationStarted)
	h.OnBuildDone(a.buildDone)
}

func (a *Adapter) compilationStarted(c Compilation) {
	a.injector.InjectScript(c)
}

func (a *Adapter) buildDone(s Stats) {
	sum := s.Summary()
	slog.Info("lifecycle: build finished",
		"warnings", len(sum.Warnings),
		"errors", len(sum.Errors),
	)
	a.broadcaster.Warnings(sum.Warnings)
	a.broadcaster.Errors(sum.Errors)
	if a.onDone != nil {
		a.onDone(sum)
	}
}
