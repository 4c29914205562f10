package siteboot

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
)

// pipInstallArgs builds the argument list for a pip install invocation.
// Split out so the flag plumbing is testable without running pip.
func pipInstallArgs(packages []string, indexURL string, extraIndexURL string, noCache bool) []string {
	args := []string{
		"install",
		"--no-warn-script-location",
	}
	if noCache {
		args = append(args, "--no-cache-dir")
	}
	args = append(args, packages...)
	if indexURL != "" {
		args = append(args, "--index-url", indexURL)
	}
	if extraIndexURL != "" {
		args = append(args, "--extra-index-url", extraIndexURL)
	}
	return args
}

// runPipStreaming runs a pip command streaming stdout lines to the progress
// callback and returns an error including captured stderr on failure.
func runPipStreaming(cmd *exec.Cmd, desc string, progressCallback ProgressCallback) error {
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("error creating stdout pipe: %v", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting pip: %v", err)
	}

	scanner := bufio.NewScanner(stdout)
	lineCount := int64(0)
	for scanner.Scan() {
		lineCount++
		if progressCallback != nil {
			progressCallback(desc, lineCount, -1)
		}
	}

	if err := waitBound(cmd); err != nil {
		return fmt.Errorf("pip failed: %v, stderr: %s", err, stderrBuf.String())
	}
	return nil
}

// PipUpgrade upgrades pip itself inside the environment.
//
// The upgrade runs as "python -m pip install --upgrade pip" rather than
// through the pip executable, since on Windows pip cannot replace its own
// running binary.
func (env *PythonEnvironment) PipUpgrade(progressCallback ProgressCallback) error {
	cmd := exec.Command(env.PythonPath, "-m", "pip", "install", "--upgrade", "pip", "--no-warn-script-location")
	if err := runPipStreaming(cmd, "Upgrading pip...", progressCallback); err != nil {
		return err
	}

	// Refresh the recorded version after the upgrade.
	pipVersionOutput, err := exec.Command(env.PipPath, "--version").Output()
	if err == nil {
		if v, parseErr := ParsePipVersion(string(pipVersionOutput)); parseErr == nil {
			env.PipVersion = v
		}
	}

	if progressCallback != nil {
		progressCallback("Pip upgraded successfully", 100, 100)
	}
	return nil
}

// PipInstallPackages installs one or more Python packages using the
// environment's pip.
//
// Parameters:
//   - packages: Package names/specifiers (e.g., "requests", "tqdm>=4.0")
//   - indexURL: Custom PyPI index URL; empty string uses the default
//   - extraIndexURL: Additional package index; empty string means none
//   - noCache: If true, disables pip's cache
//   - progressCallback: Optional progress callback; may be nil
//
// Any single failed install fails the whole call; pip's stderr is included
// in the returned error for debugging.
func (env *PythonEnvironment) PipInstallPackages(packages []string, indexURL string, extraIndexURL string, noCache bool, progressCallback ProgressCallback) error {
	if len(packages) == 0 {
		return nil
	}

	desc := "Installing pip packages..."
	if len(packages) == 1 {
		desc = fmt.Sprintf("Installing pip package %s...", packages[0])
	}

	cmd := exec.Command(env.PipPath, pipInstallArgs(packages, indexURL, extraIndexURL, noCache)...)
	if err := runPipStreaming(cmd, desc, progressCallback); err != nil {
		return err
	}

	if progressCallback != nil {
		progressCallback("Pip packages installed successfully", 100, 100)
	}
	return nil
}

// PipInstallPackage installs a single Python package using pip.
// This is a convenience wrapper around PipInstallPackages.
func (env *PythonEnvironment) PipInstallPackage(packageToInstall string, indexURL string, extraIndexURL string, noCache bool, progressCallback ProgressCallback) error {
	return env.PipInstallPackages([]string{packageToInstall}, indexURL, extraIndexURL, noCache, progressCallback)
}

// PipInstallRequirements installs packages from a requirements.txt file.
// The file should contain one package specifier per line in pip format.
func (env *PythonEnvironment) PipInstallRequirements(requirementsPath string, progressCallback ProgressCallback) error {
	cmd := exec.Command(env.PipPath, "install", "--no-warn-script-location", "-r", requirementsPath)
	if err := runPipStreaming(cmd, "Installing pip requirements...", progressCallback); err != nil {
		return err
	}

	if progressCallback != nil {
		progressCallback("Pip requirements installed successfully", 100, 100)
	}
	return nil
}
