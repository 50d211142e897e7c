package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateSessionPath(t *testing.T) {
	base := t.TempDir()
	inside := filepath.Join(base, "session1")
	if err := os.MkdirAll(inside, 0o755); err != nil {
		t.Fatal(err)
	}
	outside := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"folder inside", inside, false},
		{"the base itself", base, false},
		{"dot-dot escape", filepath.Join(base, "..", filepath.Base(outside)), true},
		{"absolute outside", outside, true},
		{"nonexistent", filepath.Join(base, "missing"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionPath(tt.path, base)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSessionPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSessionPathSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	target := t.TempDir()

	link := filepath.Join(base, "sneaky")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := ValidateSessionPath(link, base); err == nil {
		t.Error("symlink pointing outside the sessions directory was accepted")
	}
}
