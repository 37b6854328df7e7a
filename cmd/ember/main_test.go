package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.ember")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestRunEntryExecutesFile(t *testing.T) {
	path := writeSource(t, `assert(1 + 1 == 2);`)
	if code := run([]string{"run", path}); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
}

func TestRunEntryFailsOnAssertion(t *testing.T) {
	path := writeSource(t, `assert(1 == 2);`)
	if code := run([]string{"run", path}); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
}

func TestRunEntryFailsOnSyntaxError(t *testing.T) {
	path := writeSource(t, `let a = ;`)
	if code := run([]string{"run", path}); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
}

func TestRunEntryMissingFile(t *testing.T) {
	if code := run([]string{"run", filepath.Join(t.TempDir(), "missing.ember")}); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
}

func TestRunWithBareFileArgument(t *testing.T) {
	path := writeSource(t, `assert(true);`)
	if code := run([]string{path}); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
}

func TestVersionSubcommand(t *testing.T) {
	if code := run([]string{"version"}); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
}

func TestNoArgumentsPrintsUsageAndFails(t *testing.T) {
	if code := run(nil); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
}
