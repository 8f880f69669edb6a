package hooks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeHooksFile(t *testing.T, dir, content string) {
	t.Helper()
	d := filepath.Join(dir, Dir)
	if err := os.MkdirAll(d, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", Dir, err)
	}
	if err := os.WriteFile(filepath.Join(d, File), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", File, err)
	}
}

func TestExportContextToEnv(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env := ExportContext{
		SnapshotPath:   "/tmp/tree.svg",
		Format:         "svg",
		LabelCount:     42,
		HighlightCount: 7,
		Timestamp:      ts,
	}.ToEnv()

	want := []string{
		"TT_SNAPSHOT_PATH=/tmp/tree.svg",
		"TT_SNAPSHOT_FORMAT=svg",
		"TT_LABEL_COUNT=42",
		"TT_HIGHLIGHT_COUNT=7",
		"TT_TIMESTAMP=2026-03-01T12:00:00Z",
	}
	if strings.Join(env, "\n") != strings.Join(want, "\n") {
		t.Errorf("env = %v, want %v", env, want)
	}
}

func TestLoaderNoConfig(t *testing.T) {
	loader := NewLoader(WithProjectDir(t.TempDir()))
	if err := loader.Load(); err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if loader.HasHooks() {
		t.Error("expected no hooks")
	}
	if loader.Config() == nil {
		t.Error("Config should never be nil")
	}
}

func TestLoaderDefaults(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, `
hooks:
  pre-export:
    - command: ./check-labels.sh
      timeout: 5s
  post-export:
    - name: publish
      command: cp "$TT_SNAPSHOT_PATH" /srv/www/
      timeout: 60
      env:
        DEST: /srv/www
    - command: "   "
`)

	loader := NewLoader(WithProjectDir(dir))
	if err := loader.Load(); err != nil {
		t.Fatal(err)
	}

	pre := loader.Config().Hooks.PreExport
	if len(pre) != 1 {
		t.Fatalf("expected 1 pre-export hook, got %d", len(pre))
	}
	if pre[0].Name != "pre-export-1" || pre[0].OnError != OnErrorFail || pre[0].Timeout != 5*time.Second {
		t.Errorf("pre-export defaults not applied: %+v", pre[0])
	}

	post := loader.Config().Hooks.PostExport
	if len(post) != 1 {
		t.Fatalf("empty command should be dropped, got %d hooks", len(post))
	}
	if post[0].OnError != OnErrorContinue || post[0].Timeout != 60*time.Second || post[0].Env["DEST"] != "/srv/www" {
		t.Errorf("post-export hook = %+v", post[0])
	}
	if len(loader.Warnings()) != 1 {
		t.Errorf("expected one warning, got %v", loader.Warnings())
	}
}

func TestLoaderUnknownOnErrorFallsBackToFail(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, "hooks:\n  post-export:\n    - command: echo hi\n      on_error: shrug\n")
	loader := NewLoader(WithProjectDir(dir))
	if err := loader.Load(); err != nil {
		t.Fatal(err)
	}
	if got := loader.Config().Hooks.PostExport[0].OnError; got != OnErrorFail {
		t.Errorf("on_error = %q", got)
	}
	if len(loader.Warnings()) != 1 {
		t.Errorf("expected a warning, got %v", loader.Warnings())
	}
}

func TestLoaderInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, "hooks: [unclosed")
	if err := NewLoader(WithProjectDir(dir)).Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestHookUnmarshalYAMLInvalidTimeout(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, "hooks:\n  pre-export:\n    - command: echo\n      timeout: soon\n")
	if err := NewLoader(WithProjectDir(dir)).Load(); err == nil {
		t.Error("expected invalid timeout error")
	}
}

func TestNewLoaderUsesCWD(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, "hooks:\n  post-export:\n    - command: echo ok\n")
	t.Chdir(dir)

	loader := NewLoader()
	if err := loader.Load(); err != nil {
		t.Fatal(err)
	}
	if !loader.HasHooks() {
		t.Error("expected hooks loaded via cwd")
	}
	if !strings.HasSuffix(loader.Path(), filepath.Join(Dir, File)) {
		t.Errorf("Path() = %q", loader.Path())
	}
}
