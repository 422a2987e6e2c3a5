// Package inject builds the bootstrap snippet that makes a browser load the
// companion client script, and prepends it to a compilation's startup code.
package inject

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/consolerelay/consolerelay/server/internal/lifecycle"
)

// tapName identifies the relay's startup transform.
const tapName = "console-relay"

// Script returns the bootstrap snippet. In a browser it appends a single
// <script> element loading assetURL, tagged with the relay URL the client
// should connect to. Anywhere window is undefined it does nothing.
func Script(assetURL, relayURL string) string {
	return strings.Join([]string{
		"",
		"",
		"// console-relay bootstrap",
		"(function() {",
		`  if (typeof window == "undefined") return;`,
		`  var scriptDom = document.createElement("script");`,
		`  scriptDom.setAttribute("type", "text/javascript");`,
		`  scriptDom.setAttribute("src", ` + strconv.Quote(assetURL) + `);`,
		`  scriptDom.setAttribute("data-relay-url", ` + strconv.Quote(relayURL) + `);`,
		`  document.body.appendChild(scriptDom);`,
		"})();",
		"",
	}, "\n")
}

// Injector prepends a fixed snippet to the startup code of every compilation
// it is handed.
type Injector struct {
	script string
}

// New creates an Injector for the given asset and relay URLs.
func New(assetURL, relayURL string) *Injector {
	return &Injector{script: Script(assetURL, relayURL)}
}

// BuildScript returns the snippet. It is identical on every call.
func (i *Injector) BuildScript() string {
	return i.script
}

// InjectScript taps c so its startup source becomes snippet + source.
func (i *Injector) InjectScript(c lifecycle.Compilation) {
	c.TapStartup(tapName, func(source string) string {
		slog.Info("inject: injecting console relay bootstrap")
		return i.script + source
	})
}
