// Package asset provides the companion client script served to browsers.
package asset

import (
	"embed"
	"io/fs"
	"os"
)

// Name is the file name of the companion script within FS.
const Name = "assistant.js"

//go:embed assistant.js
var embedded embed.FS

// FS returns the file system the companion script is read from: dir on disk
// when set, otherwise the copy compiled into the binary.
func FS(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	return embedded
}
