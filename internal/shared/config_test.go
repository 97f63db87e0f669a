package shared

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), c); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "jinspect.yaml")
	body := `
analysis:
  sources: [./snapshots]
  workers: 2
rules:
  severity_threshold: medium
  disabled: [SerializableClassWithoutSerialVersionUID]
  options:
    SerializableNonStaticInnerClassWithoutSerialVersionUID:
      excluded_supertypes: ["java.awt.*"]
      ignore_anonymous: true
`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JINSPECT_WORKERS", "8")
	t.Setenv("JINSPECT_DB_DSN", "/tmp/x.db")

	c, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Analysis.Workers != 8 || c.Database.DSN != "/tmp/x.db" {
		t.Fatalf("env overrides not applied: %+v", c.Analysis)
	}
	if diff := cmp.Diff([]string{"./snapshots"}, c.Analysis.Sources); diff != "" {
		t.Fatalf("sources (-want +got):\n%s", diff)
	}

	s := c.RuleSettings()
	if s.SeverityThreshold != "MEDIUM" || !s.Disabled["SERIALIZABLECLASSWITHOUTSERIALVERSIONUID"] {
		t.Fatalf("settings = %+v", s)
	}
	o := s.OptionsFor("SerializableNonStaticInnerClassWithoutSerialVersionUID")
	if !o.IgnoreAnonymous || len(o.ExcludedSupertypes) != 1 {
		t.Fatalf("options = %+v", o)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(p, []byte("rules: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(p); err == nil {
		t.Fatalf("malformed config must fail")
	}
}

func TestInitLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	l := initLogger(&buf, "text", "warn")
	if l.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info should be filtered at warn")
	}
	l.Warn("pass failed", "unit", "a/B.java")
	if !strings.Contains(buf.String(), "unit=a/B.java") {
		t.Fatalf("text output = %q", buf.String())
	}
}
