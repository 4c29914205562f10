// Package siteboot prepares an isolated Python runtime environment for the
// companion download_site.py tool.
//
// The package models the environment as an explicit value rather than ambient
// process state: every operation (venv creation, pip installs, interpreter
// invocations) is a method on a *PythonEnvironment handle, so callers always
// know which installation context they are mutating.
//
// # Environment Management
//
// An environment handle is obtained from the system interpreter or from a
// specific executable, and a virtual environment is derived from it:
//
//	base, err := siteboot.CreateEnvironmentFromSystem()
//	venv, err := siteboot.CreateVenvEnvironment(base, ".venv", siteboot.VenvOptions{}, nil)
//
// Venv creation is safe to repeat: an existing environment is reused and
// reported with IsNew set to false.
//
// # Bootstrap Pipeline
//
// Bootstrap runs the full setup workflow as a fail-fast linear pipeline:
// create the venv, verify it binds, upgrade pip, install the fixed dependency
// set, and verify the packages import. The first failing step aborts the run;
// there are no retries and no rollback, since re-running the bootstrapper is
// always safe:
//
//	res, err := siteboot.Bootstrap(siteboot.Options{}, nil)
//	if err == nil {
//		fmt.Print(siteboot.UsageHint(res.Env))
//	}
//
// # Package Installation
//
// Environments install packages via their own pip:
//
//	err := venv.PipInstallPackages([]string{"requests"}, "", "", false, nil)
//	err = venv.PipInstallRequirements("requirements.txt", nil)
//
// Long-running operations report progress through an optional
// ProgressCallback, leaving rendering decisions to the caller.
//
// # Reproducibility
//
// The dependency set is installed unpinned. A successful run can record what
// was actually installed with FreezeToFile, which writes a JSON record of the
// environment's package list.
package siteboot
