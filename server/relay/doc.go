// Package relay is the console-relay build plugin.
//
// A Plugin owns two HTTP listeners: the asset endpoint, which serves the
// companion client script, and the messaging endpoint, which accepts
// WebSocket subscribers. It hooks into a bundler through lifecycle.Host.
// Every compilation gets a bootstrap snippet that loads the companion script,
// and every finished build's warnings and errors are broadcast to the
// connected browsers.
//
// Typical use with esbuild:
//
//	p := relay.New(relay.DefaultOptions())
//	if err := p.Start(ctx); err != nil {
//		return err
//	}
//	defer p.Close(context.Background())
//
//	api.Build(api.BuildOptions{
//		EntryPoints: []string{"src/index.js"},
//		Outdir:      "dist",
//		Bundle:      true,
//		Write:       true,
//		Plugins:     []api.Plugin{p.ESBuild()},
//	})
//
// Plugins share no state, so several may run in one process on different
// ports.
package relay
