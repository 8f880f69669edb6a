package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// HookResult is the outcome of one hook run.
type HookResult struct {
	Hook     Hook
	Phase    HookPhase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Executor runs configured hooks for one export.
type Executor struct {
	config   *Config
	context  ExportContext
	results  []HookResult
	warnings []string
}

// NewExecutor creates an executor for the given hooks and export.
func NewExecutor(config *Config, ctx ExportContext) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config, context: ctx}
}

// RunPreExport runs pre-export hooks in order, stopping at the first
// failure whose policy is "fail".
func (e *Executor) RunPreExport() error {
	for _, hook := range e.config.Hooks.PreExport {
		result := e.runHook(hook, PreExport)
		e.results = append(e.results, result)
		if !result.Success && hook.OnError != OnErrorContinue {
			return fmt.Errorf("pre-export hook %q failed: %w", hook.Name, result.Error)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook. The snapshot is already on disk,
// so later hooks still run after a failure; the first "fail" error is returned.
func (e *Executor) RunPostExport() error {
	var firstErr error
	for _, hook := range e.config.Hooks.PostExport {
		result := e.runHook(hook, PostExport)
		e.results = append(e.results, result)
		if !result.Success && hook.OnError == OnErrorFail && firstErr == nil {
			firstErr = fmt.Errorf("post-export hook %q failed: %w", hook.Name, result.Error)
		}
	}
	return firstErr
}

func (e *Executor) runHook(hook Hook, phase HookPhase) HookResult {
	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", hook.Command)
	cmd.WaitDelay = 100 * time.Millisecond
	cmd.Env = append(os.Environ(), e.context.ToEnv()...)
	for k, v := range hook.Env {
		cmd.Env = append(cmd.Env, k+"="+os.ExpandEnv(v))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timed out after %v", timeout)
	}

	return HookResult{
		Hook:     hook,
		Phase:    phase,
		Success:  err == nil,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: duration,
		Error:    err,
	}
}

// Results returns the hooks run so far, in order.
func (e *Executor) Results() []HookResult {
	return e.results
}

// Summary describes the hook runs, listing stderr for failures. Loader
// warnings come first.
func (e *Executor) Summary() string {
	var sb strings.Builder
	for _, w := range e.warnings {
		fmt.Fprintf(&sb, "warning: %s\n", w)
	}
	if len(e.results) == 0 {
		return sb.String()
	}
	var ok, failed int
	var failures strings.Builder
	for _, r := range e.results {
		if r.Success {
			ok++
			continue
		}
		failed++
		fmt.Fprintf(&failures, "  ✗ %s (%s): %v\n", r.Hook.Name, r.Phase, r.Error)
		if r.Stderr != "" {
			fmt.Fprintf(&failures, "    stderr: %s\n", truncate(r.Stderr, 200))
		}
	}
	fmt.Fprintf(&sb, "Hooks: %d succeeded, %d failed\n", ok, failed)
	return sb.String() + failures.String()
}

// RunHooks loads hooks for projectDir and returns an executor, or nil when
// noHooks is set or nothing is configured. Loader warnings are not fatal.
func RunHooks(projectDir string, ctx ExportContext, noHooks bool) (*Executor, error) {
	if noHooks {
		return nil, nil
	}
	loader := NewLoader(WithProjectDir(projectDir))
	if err := loader.Load(); err != nil {
		return nil, err
	}
	if !loader.HasHooks() {
		return nil, nil
	}
	e := NewExecutor(loader.Config(), ctx)
	e.warnings = loader.Warnings()
	return e, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
