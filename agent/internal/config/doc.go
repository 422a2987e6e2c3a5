// Package config loads and watches the agent configuration file.
//
// Top-level types:
//   - Config{Agent, Log}: full config tree parsed from YAML
//   - AgentConfig: relay_url, reconnect_initial, reconnect_max, output, status
//   - OutputConfig: kinds (warnings|errors), color, skip_empty; Shows(kind)
//     filters events. This section is applied live on reload.
//   - StatusConfig: metrics_url and interval of the relay health line
//
// Load(path) reads the YAML file, applies defaults (the relay's default
// messaging endpoint, 1s..60s reconnect), then validates URLs and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It re-adds the watch after the
// rename/create sequence atomic-save editors produce.
package config
