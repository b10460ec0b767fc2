package builder

import (
	"testing"
)

func TestLoadMissing(t *testing.T) {
	if _, err := Load("/does/not/exist/make.so"); err == nil {
		t.Fatal("Load succeeded on a missing builder")
	}
}

func TestLoadNotAPlugin(t *testing.T) {
	// Any non-ELF file fails to open as a plugin.
	if _, err := Load("builder.go"); err == nil {
		t.Fatal("Load succeeded on a source file")
	}
}
