// Package config loads the console-relay configuration from a YAML file.
//
// Config sections:
//   - relay - host, asset_port (23233), asset_path (/assistant.js),
//     asset_dir, messaging_port (56867), messaging_prefix (/console-relay),
//     send_buffer (16), replay_ttl (10m)
//   - build - esbuild entry_points, outdir|outfile, bundle, sourcemap,
//     minify, watch directories and rebuild debounce (100ms)
//   - alerts - rules evaluated after every build, webhooks notified when a
//     rule fires or resolves
//   - log   - level (info)
//
// Load(path) applies defaults before unmarshalling, then validates.
// DefaultRelay() is what the library uses when no file is involved.
package config
