package esbuildhost

import (
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/consolerelay/consolerelay/server/internal/lifecycle"
)

// stats is the lifecycle view of an esbuild result.
type stats struct {
	warnings []api.Message
	errors   []api.Message
}

// Summary renders each message the way esbuild prints it to a terminal,
// colors included.
func (s stats) Summary() lifecycle.Summary {
	return lifecycle.Summary{
		Warnings: format(s.warnings, api.WarningMessage),
		Errors:   format(s.errors, api.ErrorMessage),
	}
}

func format(msgs []api.Message, kind api.MessageKind) []string {
	out := make([]string, 0, len(msgs))
	if len(msgs) == 0 {
		return out
	}
	for _, s := range api.FormatMessages(msgs, api.FormatMessagesOptions{
		Kind:          kind,
		Color:         true,
		TerminalWidth: 100,
	}) {
		out = append(out, strings.TrimRight(s, "\n"))
	}
	return out
}
