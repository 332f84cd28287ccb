package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"kalshi-hedger/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd(testConfig(t), zerolog.Nop())
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), Version) {
		t.Errorf("version output %q does not contain %q", out.String(), Version)
	}
}

func TestRunCommandFailsOnMissingData(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.DerivDir = "/does/not/exist"

	cmd := NewRootCmd(cfg, zerolog.Nop())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute succeeded with a missing data directory")
	}
}

func TestConfigFlagReloadsConfiguration(t *testing.T) {
	// A config directory passed via --config must actually be loaded: its
	// sentinel data path shows up in the run command's failure.
	dir := t.TempDir()
	contents := `
[data]
deriv_dir = "/config-flag-sentinel"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cmd := NewRootCmd(testConfig(t), zerolog.Nop())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run", "--config", dir})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Execute succeeded with a sentinel data directory")
	}
	if !strings.Contains(err.Error(), "config-flag-sentinel") {
		t.Errorf("error %q does not mention the flag-loaded data dir", err)
	}
}

func TestRootCommandListsSubcommands(t *testing.T) {
	cmd := NewRootCmd(testConfig(t), zerolog.Nop())
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"run", "sweep", "version"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}
