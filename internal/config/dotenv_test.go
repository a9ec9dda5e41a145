package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vbarros/obraprime-crm-go/internal/config"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDotEnv(t *testing.T) {
	path := writeEnvFile(t, `
# comment
DOTENV_TEST_PLAIN=valor
DOTENV_TEST_QUOTED="com espaços"
export DOTENV_TEST_EXPORTED=exportado
invalid-line-without-equals
`)
	for _, key := range []string{"DOTENV_TEST_PLAIN", "DOTENV_TEST_QUOTED", "DOTENV_TEST_EXPORTED"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("DOTENV_TEST_PLAIN"); got != "valor" {
		t.Errorf("plain = %q", got)
	}
	if got := os.Getenv("DOTENV_TEST_QUOTED"); got != "com espaços" {
		t.Errorf("quoted = %q", got)
	}
	if got := os.Getenv("DOTENV_TEST_EXPORTED"); got != "exportado" {
		t.Errorf("exported = %q", got)
	}
}

func TestLoadDotEnv_EnvTakesPrecedence(t *testing.T) {
	path := writeEnvFile(t, "DOTENV_TEST_PRECEDENCE=arquivo\n")
	t.Setenv("DOTENV_TEST_PRECEDENCE", "ambiente")

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("DOTENV_TEST_PRECEDENCE"); got != "ambiente" {
		t.Errorf("value = %q, want the pre-set env to win", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
