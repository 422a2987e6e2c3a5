package asset

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFS_Embedded(t *testing.T) {
	data, err := fs.ReadFile(FS(""), Name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "data-relay-url") {
		t.Error("embedded client does not read data-relay-url")
	}
}

func TestFS_DirOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, Name), []byte("// custom"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := fs.ReadFile(FS(dir), Name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "// custom" {
		t.Errorf("content: got %q, want // custom", data)
	}
}
