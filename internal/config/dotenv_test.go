package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv_EmptyPath_NoLocalOrGlobal(t *testing.T) {
	// No --env flag and an empty project dir: nothing to load unless ~/.hookguard.env exists.
	err := LoadEnv("", t.TempDir())
	if err != nil {
		t.Fatalf("LoadEnv(\"\") = %v, want nil", err)
	}
}

func TestLoadEnv_ExplicitFileNotFound(t *testing.T) {
	err := LoadEnv("/nonexistent/path/.env", "")
	if err == nil {
		t.Fatal("LoadEnv(nonexistent) want error, got nil")
	}
	if err.Error() != "env file not found: /nonexistent/path/.env" {
		t.Errorf("LoadEnv error = %q", err.Error())
	}
}

func TestLoadEnv_ExplicitFileExists(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "custom.env")
	if err := os.WriteFile(envPath, []byte("HOOKGUARD_TEST_KEY=from_file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("HOOKGUARD_TEST_KEY") })
	if err := LoadEnv(envPath, ""); err != nil {
		t.Fatalf("LoadEnv(%q) = %v, want nil", envPath, err)
	}
	if v := os.Getenv("HOOKGUARD_TEST_KEY"); v != "from_file" {
		t.Errorf("HOOKGUARD_TEST_KEY = %q, want from_file", v)
	}
}

func TestLoadEnv_ProjectFileDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HOOKGUARD_TEST_KEEP=from_file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOOKGUARD_TEST_KEEP", "from_env")
	if err := LoadEnv("", dir); err != nil {
		t.Fatal(err)
	}
	if v := os.Getenv("HOOKGUARD_TEST_KEEP"); v != "from_env" {
		t.Errorf("HOOKGUARD_TEST_KEEP = %q, want from_env", v)
	}
}

func TestLoadEnv_LoadError(t *testing.T) {
	// A directory passed as the env file fails to parse.
	dir := t.TempDir()
	err := LoadEnv(dir, "")
	if err == nil {
		t.Fatal("LoadEnv(directory) should error")
	}
}
