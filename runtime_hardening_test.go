package rustscript

import (
	"strings"
	"testing"

	"github.com/oarkflow/log"
)

func TestDefaultRuntimeConfig(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	if cfg.MaxCallDepth != 10000 || cfg.MaxExpressionDepth != 512 || cfg.ImportCacheSize != 256 || cfg.LogEvaluation {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestRuntimeConfigIsCapturedAtConstruction(t *testing.T) {
	orig := GetRuntimeConfig()
	t.Cleanup(func() { SetRuntimeConfig(orig) })
	cfg := orig
	cfg.MaxCallDepth = 30
	SetRuntimeConfig(cfg)

	in, _ := newTestInterpreter(t)
	SetRuntimeConfig(orig)
	if in.Config().MaxCallDepth != 30 {
		t.Fatalf("expected captured depth 30, got %d", in.Config().MaxCallDepth)
	}
	mustEval(t, in, "let down = fn(n) => if n == 0 then 0 else down(n - 1)")
	mustEval(t, in, "down(20)")
	e := evalErr(t, in, "down(100)", ErrCodeStackOverflow)
	if !strings.Contains(e.Message, "30") {
		t.Fatalf("expected the limit in the message, got %q", e.Message)
	}
}

func TestRuntimeOverride(t *testing.T) {
	depth := 15
	logEval := true
	in, _ := newTestInterpreter(t,
		WithRuntimeConfig(DefaultRuntimeConfig()),
		WithRuntimeOverride(RuntimeConfigOverride{MaxCallDepth: &depth, LogEvaluation: &logEval}),
	)
	cfg := in.Config()
	if cfg.MaxCallDepth != 15 || !cfg.LogEvaluation {
		t.Fatalf("override not applied: %+v", cfg)
	}
	if cfg.MaxExpressionDepth != 512 || cfg.ImportCacheSize != 256 {
		t.Fatalf("unset fields should keep their values: %+v", cfg)
	}
	mustEval(t, in, "let down = fn(n) => if n == 0 then 0 else down(n - 1)")
	evalErr(t, in, "down(50)", ErrCodeStackOverflow)
	if got := mustEval(t, in, "down(5)"); got != Int(0) {
		t.Fatalf("the depth counter should unwind after an overflow, got %s", got)
	}
}

func TestExpressionDepthOverride(t *testing.T) {
	depth := 4
	in, _ := newTestInterpreter(t, WithRuntimeOverride(RuntimeConfigOverride{MaxExpressionDepth: &depth}))
	mustEval(t, in, "(1 + 2)")
	evalErr(t, in, "((((((1))))))", ErrCodeParse)
}

func TestNonPositiveDepthIsRejected(t *testing.T) {
	zero := 0
	if _, err := New(WithStdout(&strings.Builder{}), WithRuntimeOverride(RuntimeConfigOverride{MaxCallDepth: &zero})); err == nil {
		t.Fatalf("expected an error for a zero call depth")
	}
	if _, err := New(WithStdout(&strings.Builder{}), WithRuntimeOverride(RuntimeConfigOverride{MaxExpressionDepth: &zero})); err == nil {
		t.Fatalf("expected an error for a zero expression depth")
	}
	cfg := DefaultRuntimeConfig()
	cfg.MaxCallDepth = -3
	if _, err := New(WithStdout(&strings.Builder{}), WithRuntimeConfig(cfg)); err == nil {
		t.Fatalf("expected an error for a negative call depth")
	}

	orig := GetRuntimeConfig()
	t.Cleanup(func() { SetRuntimeConfig(orig) })
	cfg = orig
	cfg.MaxCallDepth = 0
	SetRuntimeConfig(cfg)
	_, err := New(WithStdout(&strings.Builder{}))
	if err == nil || !strings.Contains(err.Error(), "max call depth") {
		t.Fatalf("expected the process default to be validated, got %v", err)
	}
}

func TestZeroImportCacheDisablesCache(t *testing.T) {
	size := int64(0)
	in, _ := newTestInterpreter(t, WithRuntimeOverride(RuntimeConfigOverride{ImportCacheSize: &size}))
	if in.cache != nil {
		t.Fatalf("expected no import cache")
	}
}

func TestOptionValidation(t *testing.T) {
	if _, err := New(WithLogger(nil)); err == nil {
		t.Fatalf("expected an error for a nil logger")
	}
	if _, err := New(WithStdout(nil)); err == nil {
		t.Fatalf("expected an error for a nil writer")
	}
	if _, err := New(WithFileReader(nil)); err == nil {
		t.Fatalf("expected an error for a nil file reader")
	}
	in, _ := newTestInterpreter(t, WithLogger(&log.DefaultLogger), WithStdin(nil))
	if got := mustEval(t, in, "input()"); got != (Unit{}) {
		t.Fatalf("input without stdin should be unit, got %s", got)
	}
}

func TestPackageLevelEvaluateRejectsForeignScope(t *testing.T) {
	orphan := newScope("orphan", nil)
	if _, err := Evaluate("1", orphan); err == nil {
		t.Fatalf("expected an error for a scope without an interpreter")
	}
}
