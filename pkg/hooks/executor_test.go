package hooks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func phaseConfig(pre, post []Hook) *Config {
	return &Config{Hooks: HooksByPhase{PreExport: pre, PostExport: post}}
}

func TestExecutorRunSimpleHook(t *testing.T) {
	e := NewExecutor(phaseConfig([]Hook{{Name: "echo", Command: "echo hello", Timeout: 5 * time.Second, OnError: OnErrorFail}}, nil), ExportContext{})
	if err := e.RunPreExport(); err != nil {
		t.Fatal(err)
	}
	results := e.Results()
	if len(results) != 1 || !results[0].Success || results[0].Stdout != "hello" {
		t.Fatalf("unexpected results %+v", results)
	}
	if results[0].Phase != PreExport {
		t.Errorf("phase = %s", results[0].Phase)
	}
}

func TestExecutorEnvironment(t *testing.T) {
	t.Setenv("TT_HOOK_TEST_VAR", "expanded")
	e := NewExecutor(phaseConfig([]Hook{{
		Name:    "env",
		Command: `echo "$TT_SNAPSHOT_PATH $TT_LABEL_COUNT $TT_HIGHLIGHT_COUNT $EXTRA"`,
		Timeout: 5 * time.Second,
		Env:     map[string]string{"EXTRA": "${TT_HOOK_TEST_VAR}"},
		OnError: OnErrorFail,
	}}, nil), ExportContext{SnapshotPath: "/out/tree.png", LabelCount: 12, HighlightCount: 3, Timestamp: time.Now()})

	if err := e.RunPreExport(); err != nil {
		t.Fatal(err)
	}
	if got := e.Results()[0].Stdout; got != "/out/tree.png 12 3 expanded" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRunPreExportStopsOnFail(t *testing.T) {
	e := NewExecutor(phaseConfig([]Hook{
		{Name: "fail-fast", Command: "exit 1", Timeout: time.Second, OnError: OnErrorFail},
		{Name: "never", Command: "echo nope", Timeout: time.Second, OnError: OnErrorFail},
	}, nil), ExportContext{})

	err := e.RunPreExport()
	if err == nil || !strings.Contains(err.Error(), "fail-fast") {
		t.Fatalf("expected fail-fast error, got %v", err)
	}
	if len(e.Results()) != 1 {
		t.Errorf("second hook should not run, got %d results", len(e.Results()))
	}
}

func TestRunPreExportContinue(t *testing.T) {
	e := NewExecutor(phaseConfig([]Hook{
		{Name: "soft", Command: "exit 3", Timeout: time.Second, OnError: OnErrorContinue},
		{Name: "next", Command: "echo ran", Timeout: time.Second, OnError: OnErrorFail},
	}, nil), ExportContext{})

	if err := e.RunPreExport(); err != nil {
		t.Fatalf("continue policy should not fail the phase: %v", err)
	}
	if r := e.Results(); len(r) != 2 || r[0].Success || r[1].Stdout != "ran" {
		t.Errorf("unexpected results %+v", r)
	}
}

func TestRunPostExportRunsAllAndReportsFail(t *testing.T) {
	e := NewExecutor(phaseConfig(nil, []Hook{
		{Name: "fail", Command: "exit 1", Timeout: time.Second, OnError: OnErrorFail},
		{Name: "after", Command: "echo ok", Timeout: time.Second, OnError: OnErrorContinue},
	}), ExportContext{})

	if err := e.RunPostExport(); err == nil {
		t.Fatal("expected error for on_error=fail")
	}
	r := e.Results()
	if len(r) != 2 || r[1].Stdout != "ok" {
		t.Errorf("later hooks should still run: %+v", r)
	}
}

func TestExecutorHookTimeout(t *testing.T) {
	e := NewExecutor(phaseConfig([]Hook{{Name: "slow", Command: "sleep 10", Timeout: 100 * time.Millisecond, OnError: OnErrorFail}}, nil), ExportContext{})

	start := time.Now()
	if err := e.RunPreExport(); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout did not stop the hook")
	}
	r := e.Results()[0]
	if r.Success || r.Duration < 100*time.Millisecond || !strings.Contains(r.Error.Error(), "timed out") {
		t.Errorf("unexpected result %+v", r)
	}
}

func TestExecutorCommandNotFound(t *testing.T) {
	e := NewExecutor(phaseConfig([]Hook{{Name: "missing", Command: "definitely-not-a-real-command-xyz", Timeout: time.Second, OnError: OnErrorFail}}, nil), ExportContext{})
	if err := e.RunPreExport(); err == nil {
		t.Fatal("expected error")
	}
	if r := e.Results()[0]; r.Success || r.Stderr == "" {
		t.Errorf("expected shell error on stderr, got %+v", r)
	}
}

func TestExecutorPermissionDenied(t *testing.T) {
	script := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho nope\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := NewExecutor(phaseConfig([]Hook{{Name: "perm", Command: script, Timeout: time.Second, OnError: OnErrorFail}}, nil), ExportContext{})
	if err := e.RunPreExport(); err == nil {
		t.Fatal("expected permission error")
	}
}

func TestExecutorSummary(t *testing.T) {
	e := NewExecutor(phaseConfig(
		[]Hook{{Name: "good", Command: "echo ok", Timeout: time.Second, OnError: OnErrorContinue}},
		[]Hook{{Name: "noisy", Command: "printf '%0300d' 0 1>&2; exit 1", Timeout: time.Second, OnError: OnErrorContinue}},
	), ExportContext{})
	_ = e.RunPreExport()
	_ = e.RunPostExport()

	summary := e.Summary()
	if !strings.Contains(summary, "1 succeeded, 1 failed") {
		t.Errorf("summary counts wrong:\n%s", summary)
	}
	for _, line := range strings.Split(summary, "\n") {
		if strings.Contains(line, "stderr:") && len(line) > 230 {
			t.Errorf("stderr line not truncated (%d chars)", len(line))
		}
	}
	if !strings.Contains(summary, "...") {
		t.Error("expected truncation ellipsis")
	}

	if NewExecutor(nil, ExportContext{}).Summary() != "" {
		t.Error("no runs should give an empty summary")
	}
}

func TestRunHooks(t *testing.T) {
	dir := t.TempDir()
	if e, err := RunHooks(dir, ExportContext{}, false); err != nil || e != nil {
		t.Fatalf("no config: e=%v err=%v", e, err)
	}

	writeHooksFile(t, dir, "hooks:\n  pre-export:\n    - name: hello\n      command: echo hi\n")
	if e, err := RunHooks(dir, ExportContext{}, true); err != nil || e != nil {
		t.Fatalf("noHooks should short-circuit: e=%v err=%v", e, err)
	}
	e, err := RunHooks(dir, ExportContext{}, false)
	if err != nil || e == nil {
		t.Fatalf("expected executor: e=%v err=%v", e, err)
	}
	if len(e.config.Hooks.PreExport) != 1 || len(e.Results()) != 0 {
		t.Errorf("executor not initialized correctly")
	}
}

func TestRunHooksCarriesLoaderWarnings(t *testing.T) {
	dir := t.TempDir()
	writeHooksFile(t, dir, "hooks:\n  post-export:\n    - command: echo hi\n      on_error: shrug\n")
	e, err := RunHooks(dir, ExportContext{}, false)
	if err != nil || e == nil {
		t.Fatalf("expected executor: e=%v err=%v", e, err)
	}
	if summary := e.Summary(); !strings.HasPrefix(summary, "warning: ") || !strings.Contains(summary, "shrug") {
		t.Errorf("summary should lead with the loader warning:\n%s", summary)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abcdefghijklmnopqrstuvwxyz", 8); got != "abcde..." {
		t.Errorf("got %q", got)
	}
}
