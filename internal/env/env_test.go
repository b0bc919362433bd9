package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nFLUXGATE_TEST_A=hello\nFLUXGATE_TEST_B = spaced \nmalformed line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("FLUXGATE_TEST_B", "preset")

	Load(path)

	if got := os.Getenv("FLUXGATE_TEST_A"); got != "hello" {
		t.Fatalf("FLUXGATE_TEST_A = %q, want hello", got)
	}
	// Existing variables win over the file.
	if got := os.Getenv("FLUXGATE_TEST_B"); got != "preset" {
		t.Fatalf("FLUXGATE_TEST_B = %q, want preset", got)
	}

	t.Cleanup(func() { os.Unsetenv("FLUXGATE_TEST_A") })
}

func TestLoadMissingFile(t *testing.T) {
	// Must be a silent no-op.
	Load(filepath.Join(t.TempDir(), "absent.env"))
}
