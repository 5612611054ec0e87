package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"

	"slurm_usage/internal/slurm"
	"slurm_usage/internal/transport"
)

type doctorCheck struct {
	name   string
	detail string
	err    error
}

type doctorDeps struct {
	lookPath          func(string) (string, error)
	stat              func(string) (os.FileInfo, error)
	buildTransport    func(Options) (transport.Transport, error)
	checkAvailability func(context.Context, transport.Transport, time.Duration) error
	slurmVersion      func(context.Context, transport.Transport, Options) (*goversion.Version, error)
}

func defaultDoctorDeps() doctorDeps {
	return doctorDeps{
		lookPath:          exec.LookPath,
		stat:              os.Stat,
		buildTransport:    buildTransport,
		checkAvailability: checkSlurmAvailability,
		slurmVersion: func(ctx context.Context, tr transport.Transport, opts Options) (*goversion.Version, error) {
			client := slurm.NewClient(tr, slurm.Options{CommandTimeout: opts.Settings.CommandTimeout.Std()})
			return client.Version(ctx)
		},
	}
}

// RunDoctor validates the environment without issuing any usage query:
// required tools, SSH inputs, backend reachability, and the Slurm version
// floor.
func RunDoctor(opts Options, out io.Writer) error {
	return runDoctorWithDeps(opts, out, defaultDoctorDeps())
}

func runDoctorWithDeps(opts Options, out io.Writer, deps doctorDeps) error {
	target := "local"
	if opts.Target != "" {
		target = opts.Target
	}

	fmt.Fprintln(out, "slurm-usage doctor")
	fmt.Fprintf(out, "target: %s\n\n", target)

	failed := false
	for _, check := range buildDoctorChecks(opts, deps) {
		if check.err != nil {
			failed = true
			fmt.Fprintf(out, "[fail] %s: %v\n", check.name, check.err)
			continue
		}
		fmt.Fprintf(out, "[ok] %s: %s\n", check.name, check.detail)
	}

	if failed {
		fmt.Fprintln(out, "\ndoctor result: FAIL")
		return errors.New("doctor checks failed")
	}
	fmt.Fprintln(out, "\ndoctor result: PASS")
	return nil
}

func buildDoctorChecks(opts Options, deps doctorDeps) []doctorCheck {
	checks := make([]doctorCheck, 0, 8)

	appendToolCheck := func(scope string, tool string) {
		if path, err := deps.lookPath(tool); err != nil {
			checks = append(checks, doctorCheck{
				name: scope + " tool " + tool,
				err:  errors.New("not found in PATH"),
			})
		} else {
			checks = append(checks, doctorCheck{name: scope + " tool " + tool, detail: path})
		}
	}

	appendFileCheck := func(name string, path string) {
		if strings.TrimSpace(path) == "" {
			return
		}
		resolved := resolveHomePath(path)
		info, err := deps.stat(resolved)
		if err != nil {
			checks = append(checks, doctorCheck{name: name, err: fmt.Errorf("path is not readable: %s", resolved)})
			return
		}
		if info.IsDir() {
			checks = append(checks, doctorCheck{name: name, err: fmt.Errorf("expected a file but found a directory: %s", resolved)})
			return
		}
		checks = append(checks, doctorCheck{name: name, detail: resolved})
	}

	if opts.Target == "" {
		for _, tool := range []string{"bash", "sacct", "sshare", "sacctmgr"} {
			appendToolCheck("local", tool)
		}
	} else {
		appendToolCheck("local", "ssh")
		appendFileCheck("ssh config file", opts.Settings.SSH.ConfigPath)
		appendFileCheck("ssh identity file", opts.Settings.SSH.IdentityFile)
	}

	tr, err := deps.buildTransport(opts)
	if err != nil {
		checks = append(checks, doctorCheck{name: "transport initialization", err: err})
		return checks
	}

	timeout := opts.Settings.CommandTimeout.Std()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := deps.checkAvailability(ctx, tr, timeout); err != nil {
		checks = append(checks, doctorCheck{name: "accounting preflight", err: err})
		return checks
	}
	checks = append(checks, doctorCheck{
		name:   "accounting preflight",
		detail: "sacct, sshare, and sacctmgr are reachable on " + tr.Describe(),
	})

	checks = append(checks, versionCheck(ctx, tr, opts, deps))
	return checks
}

func versionCheck(ctx context.Context, tr transport.Transport, opts Options, deps doctorDeps) doctorCheck {
	check := doctorCheck{name: "slurm version"}

	floorRaw := opts.Settings.MinSlurmVersion
	if strings.TrimSpace(floorRaw) == "" {
		check.detail = "no minimum version configured"
		return check
	}
	floor, err := goversion.NewVersion(floorRaw)
	if err != nil {
		check.err = fmt.Errorf("configured min_slurm_version %q is not a valid version", floorRaw)
		return check
	}

	current, err := deps.slurmVersion(ctx, tr, opts)
	if err != nil {
		check.err = err
		return check
	}
	if current.LessThan(floor) {
		check.err = fmt.Errorf("slurm %s is older than the supported minimum %s", current, floor)
		return check
	}
	check.detail = fmt.Sprintf("slurm %s (minimum %s)", current, floor)
	return check
}

func resolveHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && strings.TrimSpace(home) != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return path
}
