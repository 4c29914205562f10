package siteboot

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
)

// waitBound waits for cmd, killing the child if the parent receives an
// interrupt or termination signal in the meantime. Without this a Ctrl-C
// during a hung network operation would orphan the interpreter.
func waitBound(cmd *exec.Cmd) error {
	sigc := make(chan os.Signal, 1)
	setSignalsForChannel(sigc)
	defer signal.Stop(sigc)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sigc:
			cmd.Process.Kill()
		case <-done:
		}
	}()

	return waitForExit(cmd)
}

// importNames maps distribution names to import names where they differ.
// pip installs "beautifulsoup4" but the package imports as "bs4".
var importNames = map[string]string{
	"beautifulsoup4":   "bs4",
	"pyyaml":           "yaml",
	"pillow":           "PIL",
	"readability-lxml": "readability",
}

// ImportName returns the Python import name for a pip distribution name.
// Known mismatches are mapped explicitly; otherwise the distribution name is
// lowercased and hyphens become underscores.
func ImportName(distName string) string {
	key := strings.ToLower(distName)
	if name, ok := importNames[key]; ok {
		return name
	}
	return strings.ReplaceAll(key, "-", "_")
}

// RunPythonReadStdout executes a Python snippet or script in the environment
// and returns its stdout. This is a blocking call.
func (env *PythonEnvironment) RunPythonReadStdout(args ...string) (string, error) {
	var stderr bytes.Buffer
	cmd := exec.Command(env.PythonPath, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("python failed: %v, stderr: %s", err, stderr.String())
	}
	return string(out), nil
}

// CheckImports verifies that each listed distribution is importable in the
// environment. Distribution names are translated with ImportName before the
// probe runs. The first unimportable package fails the check, with the
// interpreter's diagnostic included in the error.
func (env *PythonEnvironment) CheckImports(distNames []string) error {
	for _, dist := range distNames {
		mod := ImportName(dist)
		if _, err := env.RunPythonReadStdout("-c", fmt.Sprintf("import %s", mod)); err != nil {
			return fmt.Errorf("package %s (import %s) is not importable: %v", dist, mod, err)
		}
	}
	return nil
}

// RunScript executes a Python script file in the environment with the given
// arguments, returning combined output. The spawned interpreter is bound to
// the parent process: SIGINT or SIGTERM kills it.
func (env *PythonEnvironment) RunScript(scriptPath string, args ...string) (string, error) {
	args = append([]string{scriptPath}, args...)
	cmd := exec.Command(env.PythonPath, args...)

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	if err := cmd.Start(); err != nil {
		return "", err
	}
	if err := waitBound(cmd); err != nil {
		return combined.String(), err
	}
	return combined.String(), nil
}
