package siteboot

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Dependencies is the fixed set of packages the downstream download_site.py
// tool requires. The set is unpinned and fixed at build time; the default
// bootstrap run is not parameterized by caller input.
var Dependencies = []string{"requests", "beautifulsoup4", "tqdm"}

// DefaultVenvDir is where the virtual environment is created when the caller
// does not specify a location.
const DefaultVenvDir = ".venv"

// Stage identifies how far a bootstrap run has progressed. The pipeline is
// strictly linear; the first failing step transitions the run to
// StageAborted with no recovery path.
type Stage int

const (
	// StageStart is the initial state before any step has run.
	StageStart Stage = iota

	// StageEnvCreated means the virtual environment exists on disk.
	StageEnvCreated

	// StageEnvActive means the environment handle was verified to bind.
	StageEnvActive

	// StageInstallerUpgraded means pip was upgraded inside the environment.
	StageInstallerUpgraded

	// StageDepsInstalled means the dependency set was installed.
	StageDepsInstalled

	// StageDone is the terminal success state.
	StageDone

	// StageAborted is the terminal failure state.
	StageAborted
)

// String returns a human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageEnvCreated:
		return "environment created"
	case StageEnvActive:
		return "environment active"
	case StageInstallerUpgraded:
		return "installer upgraded"
	case StageDepsInstalled:
		return "dependencies installed"
	case StageDone:
		return "done"
	case StageAborted:
		return "aborted"
	}
	return "unknown"
}

// Options configures a bootstrap run. The zero value is the standard
// workflow: venv at .venv, system interpreter, default package index,
// cache enabled, imports verified.
type Options struct {
	// VenvDir is the virtual environment directory. Defaults to DefaultVenvDir.
	VenvDir string

	// PythonPath is the base interpreter to build the venv from.
	// Empty means discover the system interpreter.
	PythonPath string

	// IndexURL is a custom PyPI index URL. Empty uses pip's default.
	IndexURL string

	// ExtraIndexURL is an additional package index. Empty means none.
	ExtraIndexURL string

	// NoCache disables pip's download cache.
	NoCache bool

	// SkipVerify skips the post-install import check.
	SkipVerify bool
}

// Result reports the outcome of a bootstrap run.
type Result struct {
	// Env is the environment handle. Nil if creation itself failed.
	Env *PythonEnvironment

	// Stage is the state the run ended in: StageDone on success,
	// StageAborted on any failure.
	Stage Stage

	// FailedStep names the step that aborted the run, empty on success.
	FailedStep string
}

// step is one stage of the pipeline: a name for diagnostics, the stage
// reached when it succeeds, and the work itself.
type step struct {
	name    string
	reached Stage
	run     func() error
}

// runSteps executes the pipeline in order, stopping at the first error.
// Each step is announced before it runs. The failing step's error is
// surfaced verbatim, wrapped only with the step name; no later step runs
// after a failure.
func runSteps(res *Result, steps []step, announce func(name string)) error {
	for _, s := range steps {
		if announce != nil {
			announce(s.name)
		}
		if err := s.run(); err != nil {
			res.FailedStep = s.name
			res.Stage = StageAborted
			return fmt.Errorf("%s: %w", s.name, err)
		}
		res.Stage = s.reached
	}
	return nil
}

// Bootstrap prepares the runtime environment for download_site.py.
//
// The pipeline runs create, activate, upgrade installer, install dependency
// set, and verify, in that order. Each step must complete before the next
// begins; any failure aborts the run immediately so a half-configured
// environment is never presented as ready. Re-running after success is safe.
//
// The returned Result is non-nil even on failure and records how the run
// ended. Progress for long operations is reported through progressCallback,
// which may be nil.
func Bootstrap(opts Options, progressCallback ProgressCallback) (*Result, error) {
	venvDir := opts.VenvDir
	if venvDir == "" {
		venvDir = DefaultVenvDir
	}

	res := &Result{Stage: StageStart}
	var env *PythonEnvironment

	steps := []step{
		{"create environment", StageEnvCreated, func() error {
			var base *PythonEnvironment
			var err error
			if opts.PythonPath != "" {
				base, err = CreateEnvironmentFromExecutable(opts.PythonPath)
			} else {
				base, err = CreateEnvironmentFromSystem()
			}
			if err != nil {
				return err
			}
			env, err = CreateVenvEnvironment(base, venvDir, VenvOptions{}, progressCallback)
			if err != nil {
				return err
			}
			res.Env = env
			return nil
		}},
		{"activate environment", StageEnvActive, func() error {
			return env.Verify()
		}},
		{"upgrade pip", StageInstallerUpgraded, func() error {
			return env.PipUpgrade(progressCallback)
		}},
		{"install dependencies", StageDepsInstalled, func() error {
			return env.PipInstallPackages(Dependencies, opts.IndexURL, opts.ExtraIndexURL, opts.NoCache, progressCallback)
		}},
		{"verify imports", StageDone, func() error {
			if opts.SkipVerify {
				return nil
			}
			return env.CheckImports(Dependencies)
		}},
	}

	announce := func(name string) {
		if progressCallback != nil {
			progressCallback(name, 0, -1)
		}
	}

	if err := runSteps(res, steps, announce); err != nil {
		return res, err
	}
	return res, nil
}

// UsageHint returns the follow-up invocation the operator should use once
// bootstrap succeeds. It is printed if and only if every step completed.
func UsageHint(env *PythonEnvironment) string {
	var b strings.Builder
	b.WriteString("Setup complete. To run the downloader:\n\n")
	activate := filepath.Join(env.EnvBinPath, "activate")
	if runtime.GOOS == "windows" {
		fmt.Fprintf(&b, "  %s\n", activate)
	} else {
		fmt.Fprintf(&b, "  source %s\n", activate)
	}
	b.WriteString("  python download_site.py <sitemap_url> [options]\n")
	return b.String()
}
