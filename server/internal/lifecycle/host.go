package lifecycle

// Compilation is the mutable context of one compilation pass.
type Compilation interface {
	// TapStartup registers fn to rewrite the generated startup source of this
	// compilation. Taps run in registration order.
	TapStartup(name string, fn func(source string) string)
}

// Summary is the part of a finished build the relay cares about.
type Summary struct {
	Warnings []string
	Errors   []string
}

// Stats describes a finished build.
type Stats interface {
	Summary() Summary
}

// Host is a bundler's hook surface.
type Host interface {
	OnCompilationStart(fn func(Compilation))
	OnBuildDone(fn func(Stats))
}
