package siteboot

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestRunStepsStopsAtFirstError(t *testing.T) {
	var ran []string
	boom := errors.New("boom")

	res := &Result{Stage: StageStart}
	steps := []step{
		{"one", StageEnvCreated, func() error { ran = append(ran, "one"); return nil }},
		{"two", StageEnvActive, func() error { ran = append(ran, "two"); return boom }},
		{"three", StageInstallerUpgraded, func() error { ran = append(ran, "three"); return nil }},
	}

	err := runSteps(res, steps, nil)
	if err == nil {
		t.Fatal("Expected error from failing step")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped step error, got %v", err)
	}
	if !strings.Contains(err.Error(), "two") {
		t.Errorf("Expected error to name the failing step, got %q", err.Error())
	}
	if len(ran) != 2 {
		t.Errorf("Expected no step to run after the failure, ran %v", ran)
	}
	if res.Stage != StageAborted {
		t.Errorf("Expected StageAborted, got %v", res.Stage)
	}
	if res.FailedStep != "two" {
		t.Errorf("Expected FailedStep 'two', got %q", res.FailedStep)
	}
}

func TestRunStepsAllSucceed(t *testing.T) {
	res := &Result{Stage: StageStart}
	steps := []step{
		{"one", StageEnvCreated, func() error { return nil }},
		{"two", StageDone, func() error { return nil }},
	}

	if err := runSteps(res, steps, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Stage != StageDone {
		t.Errorf("Expected StageDone, got %v", res.Stage)
	}
	if res.FailedStep != "" {
		t.Errorf("Expected empty FailedStep, got %q", res.FailedStep)
	}
}

func TestRunStepsAnnouncesInOrder(t *testing.T) {
	var announced []string
	res := &Result{Stage: StageStart}
	steps := []step{
		{"create", StageEnvCreated, func() error { return nil }},
		{"activate", StageEnvActive, func() error { return errors.New("nope") }},
		{"upgrade", StageInstallerUpgraded, func() error { return nil }},
	}

	_ = runSteps(res, steps, func(name string) { announced = append(announced, name) })

	want := []string{"create", "activate"}
	if len(announced) != len(want) {
		t.Fatalf("Expected announcements %v, got %v", want, announced)
	}
	for i := range want {
		if announced[i] != want[i] {
			t.Errorf("Announcement %d: expected %q, got %q", i, want[i], announced[i])
		}
	}
}

func TestStageString(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageStart, "start"},
		{StageEnvCreated, "environment created"},
		{StageEnvActive, "environment active"},
		{StageInstallerUpgraded, "installer upgraded"},
		{StageDepsInstalled, "dependencies installed"},
		{StageDone, "done"},
		{StageAborted, "aborted"},
		{Stage(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.stage.String(); got != tt.want {
			t.Errorf("Stage(%d).String() = %q, want %q", tt.stage, got, tt.want)
		}
	}
}

func TestDependencySet(t *testing.T) {
	want := []string{"requests", "beautifulsoup4", "tqdm"}
	if len(Dependencies) != len(want) {
		t.Fatalf("Expected %d dependencies, got %d", len(want), len(Dependencies))
	}
	for i, name := range want {
		if Dependencies[i] != name {
			t.Errorf("Dependencies[%d] = %q, want %q", i, Dependencies[i], name)
		}
	}
}

func TestBootstrapAbortsWhenInterpreterMissing(t *testing.T) {
	res, err := Bootstrap(Options{
		PythonPath: filepath.Join(t.TempDir(), "no-such-python"),
		VenvDir:    filepath.Join(t.TempDir(), "venv"),
	}, nil)

	if err == nil {
		t.Fatal("Expected error for missing interpreter")
	}
	if res == nil {
		t.Fatal("Expected a result even on failure")
	}
	if res.Stage != StageAborted {
		t.Errorf("Expected StageAborted, got %v", res.Stage)
	}
	if res.FailedStep != "create environment" {
		t.Errorf("Expected failure in 'create environment', got %q", res.FailedStep)
	}
	if res.Env != nil {
		t.Error("Expected no environment handle when creation failed")
	}
}

func TestUsageHint(t *testing.T) {
	env := &PythonEnvironment{
		EnvPath:    filepath.Join("/home/op", ".venv"),
		EnvBinPath: filepath.Join("/home/op", ".venv", "bin"),
	}

	hint := UsageHint(env)
	if !strings.Contains(hint, "download_site.py <sitemap_url> [options]") {
		t.Errorf("Expected hint to contain the downloader invocation, got %q", hint)
	}
	if runtime.GOOS != "windows" && !strings.Contains(hint, "source ") {
		t.Errorf("Expected hint to mention activation, got %q", hint)
	}
	if !strings.Contains(hint, env.EnvBinPath) {
		t.Errorf("Expected hint to reference the environment bin path, got %q", hint)
	}
}
