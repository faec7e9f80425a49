package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug")
	if !logger.Enabled(t.Context(), slog.LevelDebug) {
		t.Fatal("debug level should be enabled")
	}
	if !slog.Default().Enabled(t.Context(), slog.LevelDebug) {
		t.Fatal("logger should be installed as the default")
	}
	SetupLogger("info")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if loaded, err := LoadEnvFile(); err != nil || len(loaded) != 0 {
		t.Fatalf("no files: loaded=%v err=%v", loaded, err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FINDASH_TEST_VAR=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINDASH_TEST_VAR", "")
	os.Unsetenv("FINDASH_TEST_VAR")

	loaded, err := LoadEnvFile()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 || loaded[0] != ".env" {
		t.Fatalf("unexpected loaded files %v", loaded)
	}
	if got := os.Getenv("FINDASH_TEST_VAR"); got != "from-file" {
		t.Fatalf("FINDASH_TEST_VAR = %q", got)
	}
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext()
	cancel()
	<-ctx.Done()
}
