// Package main is the entry point for the siteboot CLI.
//
// siteboot prepares the isolated Python runtime environment that the
// companion download_site.py tool requires: it creates a venv, upgrades pip,
// installs the fixed dependency set, and prints the follow-up invocation.
// Running it with no arguments performs the full bootstrap with defaults.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/calobozan/siteboot"
)

// version, commit, and date are set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootFlags holds the flag values for the root command. The defaults are
// chosen so a bare "siteboot" invocation performs the full standard setup.
type rootFlags struct {
	dir           string // --dir: venv directory
	python        string // --python: base interpreter path
	indexURL      string // --index-url: custom PyPI index
	extraIndexURL string // --extra-index-url: additional index
	noCache       bool   // --no-cache: disable pip's cache
	skipVerify    bool   // --skip-verify: skip the import check
	freezeFile    string // --freeze: record installed packages to a JSON file
	verbose       bool   // --verbose: show pip output progress
}

func versionString() string {
	if version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// newRootCommand creates the root cobra command. There are no subcommands:
// the bootstrap is the whole program.
func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "siteboot",
		Short: "Prepare the Python environment for download_site.py",
		Long: `siteboot creates an isolated Python virtual environment, upgrades pip,
and installs the packages download_site.py needs (requests, beautifulsoup4,
tqdm).

The run is fail-fast: the first failing step aborts with a non-zero exit
status and the environment is never reported as ready. Re-running after a
success is safe; an existing environment is reused.`,

		Args: cobra.NoArgs,

		// Errors are formatted once by the Execute wrapper.
		SilenceUsage: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBootstrap(flags)
		},
	}

	cmd.Flags().StringVar(&flags.dir, "dir", siteboot.DefaultVenvDir, "Virtual environment directory")
	cmd.Flags().StringVar(&flags.python, "python", "", "Base Python interpreter (default: discover on PATH)")
	cmd.Flags().StringVar(&flags.indexURL, "index-url", "", "Custom PyPI index URL")
	cmd.Flags().StringVar(&flags.extraIndexURL, "extra-index-url", "", "Additional package index URL")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Disable pip's download cache")
	cmd.Flags().BoolVar(&flags.skipVerify, "skip-verify", false, "Skip the post-install import check")
	cmd.Flags().StringVar(&flags.freezeFile, "freeze", "", "Write the installed package list to this JSON file on success")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Show detailed progress output")

	return cmd
}

// runBootstrap executes the pipeline and prints the completion hint.
// The hint goes to stdout if and only if every step succeeded.
func runBootstrap(flags *rootFlags) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if flags.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	// Step announcements (current==0, total==-1) and completions
	// (current==total) log at info; per-line pip output is debug only.
	progress := func(message string, current, total int64) {
		switch {
		case current == 0 && total == -1:
			logger.Info(message)
		case total > 0 && current >= total:
			logger.Info(message)
		default:
			logger.Debug(message, "line", current)
		}
	}

	res, err := siteboot.Bootstrap(siteboot.Options{
		VenvDir:       flags.dir,
		PythonPath:    flags.python,
		IndexURL:      flags.indexURL,
		ExtraIndexURL: flags.extraIndexURL,
		NoCache:       flags.noCache,
		SkipVerify:    flags.skipVerify,
	}, progress)
	if err != nil {
		logger.Error("Bootstrap failed", "step", res.FailedStep, "stage", res.Stage.String())
		return err
	}

	if flags.freezeFile != "" {
		if err := res.Env.FreezeToFile(flags.freezeFile); err != nil {
			return fmt.Errorf("recording installed packages: %w", err)
		}
		logger.Info("Recorded installed packages", "file", flags.freezeFile)
	}

	fmt.Print(siteboot.UsageHint(res.Env))
	return nil
}

func main() {
	// fang wraps cobra execution with styled help/errors and signal
	// handling; any error from the pipeline exits non-zero.
	if err := fang.Execute(
		context.Background(),
		newRootCommand(),
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
