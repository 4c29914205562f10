package siteboot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// Runtime defines common operations for an isolated runtime environment.
// It lets callers work with the environment handle without depending on the
// concrete Python type.
type Runtime interface {
	// Name returns the environment identifier.
	Name() string

	// Path returns the base environment path.
	Path() string

	// BinPath returns the path to executables.
	BinPath() string

	// Freeze serializes the environment to a file for reproducibility.
	Freeze(filePath string) error
}

// PythonEnvironment represents a Python installation context with all paths
// and version information resolved. It is the explicit "activation" handle:
// every install and execution operation is bound to one of these values
// instead of ambient process state.
type PythonEnvironment struct {
	// EnvironmentName is the identifier for this environment (e.g., ".venv", "system").
	EnvironmentName string

	// EnvPath is the full path to the environment directory.
	EnvPath string

	// EnvBinPath is the path to the bin (or Scripts on Windows) directory.
	EnvBinPath string

	// SitePackagesPath is the path to the site-packages directory.
	SitePackagesPath string

	// PythonPath is the full path to the Python executable.
	PythonPath string

	// PipPath is the full path to the pip executable.
	PipPath string

	// PythonVersion is the detected Python version (e.g., 3.12.1).
	PythonVersion Version

	// PipVersion is the detected pip version.
	PipVersion Version

	// IsNew indicates whether this environment was newly created (true)
	// or already existed (false).
	IsNew bool
}

// Name returns the environment identifier.
// Implements the Runtime interface.
func (env *PythonEnvironment) Name() string {
	return env.EnvironmentName
}

// Path returns the base environment path.
// Implements the Runtime interface.
func (env *PythonEnvironment) Path() string {
	return env.EnvPath
}

// BinPath returns the path to executables.
// Implements the Runtime interface.
func (env *PythonEnvironment) BinPath() string {
	return env.EnvBinPath
}

// Freeze serializes the environment to a file for reproducibility.
// Implements the Runtime interface. This is an alias for FreezeToFile.
func (env *PythonEnvironment) Freeze(filePath string) error {
	return env.FreezeToFile(filePath)
}

// VenvOptions configures the creation of a Python virtual environment.
// These options correspond to the flags of Python's venv module.
type VenvOptions struct {
	// SystemSitePackages gives access to the system site-packages directory.
	SystemSitePackages bool

	// Symlinks creates symlinks to Python files instead of copies (Unix default).
	Symlinks bool

	// Copies creates copies of Python files instead of symlinks (Windows default).
	Copies bool

	// Clear deletes the contents of the environment directory if it exists.
	Clear bool

	// Upgrade upgrades an existing environment to use the current Python version.
	Upgrade bool

	// WithoutPip skips pip installation in the virtual environment.
	WithoutPip bool

	// Prompt sets a custom prompt prefix for the virtual environment.
	Prompt string

	// UpgradeDeps upgrades pip and setuptools to the latest versions.
	UpgradeDeps bool
}

// ProgressCallback is called during long-running operations to report progress.
// The message describes the current operation, current is the progress value,
// and total is the expected total (-1 if unknown).
type ProgressCallback func(message string, current, total int64)

// EnvironmentSpec is the JSON record written by FreezeToFile. It captures
// what a bootstrap run actually installed, since the dependency set itself
// is unpinned.
type EnvironmentSpec struct {
	// Name is the environment name.
	Name string `json:"name"`

	// PythonVersion is the interpreter version (e.g., "3.12").
	PythonVersion string `json:"python_version,omitempty"`

	// PipPackages lists installed packages in "name==version" format.
	PipPackages []string `json:"pip_packages"`
}

// venvLayout returns the executable directory and python/pip paths for a venv
// rooted at venvPath, following the platform conventions of the venv module.
func venvLayout(venvPath string) (binPath, pythonPath, pipPath string) {
	if runtime.GOOS == "windows" {
		binPath = filepath.Join(venvPath, "Scripts")
		return binPath, filepath.Join(binPath, "python.exe"), filepath.Join(binPath, "pip.exe")
	}
	binPath = filepath.Join(venvPath, "bin")
	return binPath, filepath.Join(binPath, "python"), filepath.Join(binPath, "pip")
}

// isDirWritable reports whether the current process can create files in dir.
func isDirWritable(dir string) bool {
	probe, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return false
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return true
}

// CreateEnvironmentFromExecutable creates a PythonEnvironment from an existing
// Python executable. The interpreter is queried for its version, pip, and
// site-packages location.
func CreateEnvironmentFromExecutable(pythonPath string) (*PythonEnvironment, error) {
	env := &PythonEnvironment{
		EnvironmentName: "system",
		PythonPath:      pythonPath,
		IsNew:           false,
	}

	versionOutput, err := exec.Command(pythonPath, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("error getting Python version: %v", err)
	}
	env.PythonVersion, err = ParsePythonVersion(string(versionOutput))
	if err != nil {
		return nil, fmt.Errorf("error parsing Python version: %v", err)
	}

	sitePackagesOutput, err := exec.Command(pythonPath, "-c", "import site; print(site.getsitepackages()[0])").Output()
	if err != nil {
		return nil, fmt.Errorf("error getting site-packages path: %v", err)
	}
	env.SitePackagesPath = strings.TrimSpace(string(sitePackagesOutput))

	env.EnvBinPath = filepath.Dir(pythonPath)
	env.EnvPath = filepath.Dir(env.EnvBinPath)

	// pip may live next to the interpreter or only on PATH; the base
	// environment's pip is informational, installs go through the venv.
	pipNames := []string{"pip3", "pip"}
	for _, name := range pipNames {
		if runtime.GOOS == "windows" {
			name += ".exe"
		}
		if p, lookErr := exec.LookPath(name); lookErr == nil {
			env.PipPath = p
			break
		}
	}
	if env.PipPath != "" {
		pipVersionOutput, pipErr := exec.Command(env.PipPath, "--version").Output()
		if pipErr == nil {
			env.PipVersion, _ = ParsePipVersion(string(pipVersionOutput))
		}
	}

	return env, nil
}

// CreateEnvironmentFromSystem creates a PythonEnvironment using the system
// Python installation.
//
// On Unix systems it searches for "python3" then "python" on PATH. On Windows
// it first tries the "py" launcher, then "where python" while filtering out
// the Microsoft Store placeholder executables.
//
// Returns an error if no Python installation is found.
func CreateEnvironmentFromSystem() (*PythonEnvironment, error) {
	pythonPath := ""
	if runtime.GOOS == "windows" {
		wout, err := exec.Command("where", "py").Output()
		if err == nil {
			// first hit wins
			pythonPath = strings.TrimSpace(strings.SplitN(string(wout), "\n", 2)[0])
		}
		if pythonPath == "" {
			wout, err = exec.Command("where", "python").Output()
			if err != nil {
				return nil, fmt.Errorf("error running 'where python': %v", err)
			}
			for _, p := range strings.Split(string(wout), "\n") {
				p = strings.TrimSpace(p)
				// the Store placeholder is not a usable interpreter
				if p != "" && !strings.Contains(p, "Microsoft\\WindowsApps") {
					pythonPath = p
					break
				}
			}
		}
		if pythonPath == "" {
			return nil, fmt.Errorf("python not found")
		}
	} else {
		var err error
		pythonPath, err = exec.LookPath("python3")
		if err != nil {
			pythonPath, err = exec.LookPath("python")
			if err != nil {
				return nil, fmt.Errorf("python not found: %v", err)
			}
		}
	}

	return CreateEnvironmentFromExecutable(pythonPath)
}

// CreateVenvEnvironment creates a Python virtual environment using the venv module.
//
// The virtual environment inherits from baseEnv but has its own site-packages.
// If the venv already exists it is reused and IsNew is false; re-running
// creation against an existing path is safe and never fails with an
// "already exists" condition.
//
// Returns an error if baseEnv is nil, the parent directory is not writable,
// or venv creation fails.
func CreateVenvEnvironment(baseEnv *PythonEnvironment, venvPath string, options VenvOptions, progressCallback ProgressCallback) (*PythonEnvironment, error) {
	if baseEnv == nil {
		return nil, fmt.Errorf("base environment is nil")
	}

	absPath, err := filepath.Abs(venvPath)
	if err != nil {
		return nil, fmt.Errorf("error resolving venv path: %v", err)
	}

	parent := filepath.Dir(absPath)
	if _, statErr := os.Stat(parent); os.IsNotExist(statErr) {
		if mkErr := os.MkdirAll(parent, 0755); mkErr != nil {
			return nil, fmt.Errorf("error creating directory: %v", mkErr)
		}
	}
	if !isDirWritable(parent) {
		return nil, fmt.Errorf("target directory is not writable: %s", parent)
	}

	envExists := false
	if _, statErr := os.Stat(absPath); statErr == nil {
		envExists = true
	}

	newEnv := &PythonEnvironment{
		EnvironmentName: filepath.Base(absPath),
		EnvPath:         absPath,
		IsNew:           !envExists || options.Clear,
	}

	args := []string{"-m", "venv"}
	if options.SystemSitePackages {
		args = append(args, "--system-site-packages")
	}
	if options.Symlinks {
		args = append(args, "--symlinks")
	}
	if options.Copies {
		args = append(args, "--copies")
	}
	if options.Clear {
		args = append(args, "--clear")
	} else if options.Upgrade {
		args = append(args, "--upgrade")
	}
	if options.WithoutPip {
		args = append(args, "--without-pip")
	}
	if options.Prompt != "" {
		args = append(args, "--prompt", options.Prompt)
	}
	if options.UpgradeDeps {
		args = append(args, "--upgrade-deps")
	}
	args = append(args, absPath)

	var stderr bytes.Buffer
	venvCmd := exec.Command(baseEnv.PythonPath, args...)
	venvCmd.Stderr = &stderr
	if err := venvCmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to create virtual environment: %v, stderr: %s", err, stderr.String())
	}

	if progressCallback != nil {
		if newEnv.IsNew {
			progressCallback("Created virtual environment", 25, 100)
		} else {
			progressCallback("Reusing existing virtual environment", 25, 100)
		}
	}

	newEnv.EnvBinPath, newEnv.PythonPath, newEnv.PipPath = venvLayout(absPath)
	if options.WithoutPip {
		newEnv.PipPath = ""
	}

	versionOutput, err := exec.Command(newEnv.PythonPath, "--version").Output()
	if err != nil {
		return nil, fmt.Errorf("error getting Python version: %v", err)
	}
	newEnv.PythonVersion, err = ParsePythonVersion(string(versionOutput))
	if err != nil {
		return nil, fmt.Errorf("error parsing Python version: %v", err)
	}

	if runtime.GOOS == "windows" {
		newEnv.SitePackagesPath = filepath.Join(absPath, "Lib", "site-packages")
	} else {
		newEnv.SitePackagesPath = filepath.Join(absPath, "lib", "python"+newEnv.PythonVersion.MinorString(), "site-packages")
	}

	if !options.WithoutPip {
		pipVersionOutput, pipErr := exec.Command(newEnv.PipPath, "--version").Output()
		if pipErr != nil {
			return nil, fmt.Errorf("error getting pip version: %v", pipErr)
		}
		newEnv.PipVersion, err = ParsePipVersion(string(pipVersionOutput))
		if err != nil {
			return nil, fmt.Errorf("error parsing pip version: %v", err)
		}
	}

	if progressCallback != nil {
		progressCallback("Virtual environment ready", 100, 100)
	}

	return newEnv, nil
}

// Verify checks that the environment handle actually binds to a working
// interpreter inside the environment directory: the python and pip
// executables exist, and the interpreter's sys.prefix resolves within
// EnvPath. This is the explicit replacement for shell-style "activation".
func (env *PythonEnvironment) Verify() error {
	if _, err := os.Stat(env.PythonPath); err != nil {
		return fmt.Errorf("python executable missing: %v", err)
	}
	if env.PipPath != "" {
		if _, err := os.Stat(env.PipPath); err != nil {
			return fmt.Errorf("pip executable missing: %v", err)
		}
	}

	out, err := exec.Command(env.PythonPath, "-c", "import sys; print(sys.prefix)").Output()
	if err != nil {
		return fmt.Errorf("error querying sys.prefix: %v", err)
	}
	prefix := strings.TrimSpace(string(out))

	// Resolve symlinks on both sides before comparing; macOS tempdirs and
	// symlinked venv roots otherwise produce false mismatches.
	realPrefix, err := filepath.EvalSymlinks(prefix)
	if err != nil {
		realPrefix = prefix
	}
	realEnv, err := filepath.EvalSymlinks(env.EnvPath)
	if err != nil {
		realEnv = env.EnvPath
	}
	if realPrefix != realEnv {
		return fmt.Errorf("environment does not bind: sys.prefix is %s, expected %s", prefix, env.EnvPath)
	}
	return nil
}

var fileURLRe = regexp.MustCompile(`^(.+) @ file:///.+$`)

// cleanPipFreeze splits pip freeze output into package specifiers,
// stripping file URLs and inline comments.
func cleanPipFreeze(output []byte) []string {
	var packages []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if match := fileURLRe.FindStringSubmatch(line); len(match) > 1 {
			line = match[1]
		}
		spec := strings.TrimSpace(strings.SplitN(line, "#", 2)[0])
		if spec != "" {
			packages = append(packages, spec)
		}
	}
	return packages
}

// FreezeToFile saves the environment's installed package list to a JSON file.
//
// The output records the environment name, interpreter version, and the
// "name==version" specifiers reported by pip freeze. Since the bootstrap
// dependency set is unpinned, this file is the record of what a particular
// run actually installed.
func (env *PythonEnvironment) FreezeToFile(filePath string) error {
	if env.PipPath == "" {
		return fmt.Errorf("no pip path found")
	}

	pipOutput, err := exec.Command(env.PipPath, "freeze").Output()
	if err != nil {
		return fmt.Errorf("error running pip freeze: %v", err)
	}

	spec := EnvironmentSpec{
		Name:          env.EnvironmentName,
		PythonVersion: env.PythonVersion.MinorString(),
		PipPackages:   cleanPipFreeze(pipOutput),
	}
	if spec.PipPackages == nil {
		spec.PipPackages = []string{}
	}

	jsonData, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling environment spec to JSON: %v", err)
	}
	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing JSON to file: %v", err)
	}
	return nil
}
