package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/errors"
)

func TestValidatePath_TraversalRejected(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../backup.yaml"},
		{"deep traversal", "../../etc/backup.yaml"},
		{"mid-path traversal", "/tmp/../etc/backup.yaml"},
		{"hidden in path", "/tmp/safe/../../../etc/shadow.yml"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, PathCheckWrite, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_ExtensionRequired(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	for _, path := range []string{"/tmp/backup", "/tmp/backup.json", "/tmp/backup.jsonl", "/tmp/backup.txt"} {
		t.Run(path, func(t *testing.T) {
			err := ValidatePath(path, PathCheckWrite, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}

	for _, path := range []string{"/tmp/backup.yaml", "/tmp/backup.yml", "/tmp/BACKUP.YAML"} {
		if err := ValidatePath(path, PathCheckWrite, cfg); err != nil {
			t.Errorf("ValidatePath(%q) = %v, want nil", path, err)
		}
	}
}

func TestValidatePath_DirectoryRestriction(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := config.DefaultConfig()

	err := ValidatePath("/tmp/backup.yaml", PathCheckWrite, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidatePath_DefaultExportsDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := DefaultExportsDir()
	if err != nil {
		t.Fatalf("DefaultExportsDir failed: %v", err)
	}
	if dir != filepath.Join(home, ".spinit", "exports") {
		t.Errorf("DefaultExportsDir = %q", dir)
	}
	if err := ValidatePath(filepath.Join(dir, "out.yaml"), PathCheckWrite, config.DefaultConfig()); err != nil {
		t.Errorf("default exports dir rejected: %v", err)
	}
}

func TestValidatePath_AllowedPaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{tmpDir}

	if err := ValidatePath(filepath.Join(tmpDir, "export.yaml"), PathCheckWrite, cfg); err != nil {
		t.Errorf("expected path in allowed_paths to pass, got: %v", err)
	}

	// Nested directories are rejected even under an allowed path.
	nested := filepath.Join(tmpDir, "sub", "export.yaml")
	if err := ValidatePath(nested, PathCheckWrite, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected nested path to be rejected, got: %v", err)
	}
}

func TestValidatePath_FileNotFound_ReadMode(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{tmpDir}

	err := ValidatePath(filepath.Join(tmpDir, "missing.yaml"), PathCheckRead, cfg)
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("expected ErrFileNotFound, got: %v", err)
	}
}

func TestValidatePath_SymlinkRejected_EvenWithUnsafePaths(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "target.yaml")
	if err := os.WriteFile(target, []byte("spinit_export: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(tmpDir, "link.yaml")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	for _, unsafe := range []bool{false, true} {
		cfg := config.DefaultConfig()
		cfg.AllowedPaths = []string{tmpDir}
		cfg.AllowUnsafePaths = unsafe
		for _, mode := range []PathCheckMode{PathCheckRead, PathCheckWrite} {
			if err := ValidatePath(link, mode, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("unsafe=%v mode=%d: expected ErrInvalidRequest, got %v", unsafe, mode, err)
			}
		}
	}
}

func TestValidatePath_SymlinkedAllowedDirResolved(t *testing.T) {
	real := t.TempDir()
	linkDir := filepath.Join(t.TempDir(), "exports-link")
	if err := os.Symlink(real, linkDir); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{linkDir}

	if err := ValidatePath(filepath.Join(real, "out.yaml"), PathCheckWrite, cfg); err != nil {
		t.Errorf("file in resolved allowed dir rejected: %v", err)
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path     string
		contains bool
	}{
		{"/home/user/file.yaml", false},
		{"../file.yaml", true},
		{"/home/../etc/passwd", true},
		{"./file.yaml", false},
		{"/home/user/.hidden/file.yaml", false},
		{"file..name.yaml", false},
		{"/tmp/a/b/../c.yaml", true},
	}
	for _, tc := range tests {
		if got := containsTraversal(tc.path); got != tc.contains {
			t.Errorf("containsTraversal(%q) = %v, want %v", tc.path, got, tc.contains)
		}
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"lunch", "lunch"},
		{"movie night", "movie night"},
		{"path/to/file", "path-to-file"},
		{"path\\to\\file", "path-to-file"},
		{"foo..bar", "foo-bar"},
		{"../../../etc/passwd", "etc-passwd"},
		{"foo\x00bar", "foobar"},
		{"../../..", "unnamed"},
		{"a---b", "a-b"},
		{"🍕 pizza", "🍕 pizza"},
	}
	for _, tc := range tests {
		if got := SanitizeForFilename(tc.input); got != tc.expected {
			t.Errorf("SanitizeForFilename(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
