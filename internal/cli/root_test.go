package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"slurm_usage/internal/transport"
	"slurm_usage/internal/usage"
)

func TestReportErrorExitCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		want string
	}{
		{
			name: "invalid window",
			err:  fmt.Errorf("resolve window: %w", usage.ErrInvalidWindow),
			code: ExitInvalidArgs,
			want: "invalid report window",
		},
		{
			name: "invalid arguments",
			err:  &usage.ArgumentError{Reason: "ssh-specific flags require a remote target"},
			code: ExitInvalidArgs,
			want: "ssh-specific flags require a remote target",
		},
		{
			name: "privileged user without target",
			err: fmt.Errorf("report: %w",
				&usage.ArgumentError{Reason: "a privileged user must specify a username or an account to report on"}),
			code: ExitInvalidArgs,
			want: "must specify a username or an account",
		},
		{
			name: "access denied",
			err:  &usage.AccessDeniedError{Reason: "not a member or coordinator of account msc01"},
			code: ExitAccessDenied,
			want: "not a member or coordinator",
		},
		{
			name: "transient source failure suggests retrying",
			err: &usage.SourceUnavailableError{Op: "sacct",
				Err: &transport.RunError{Target: "local", ExitCode: 1, Stderr: "ssh: connection refused"}},
			code: ExitSourceUnavailable,
			want: "temporarily unreachable",
		},
		{
			name: "persistent source failure gives no retry hint",
			err: &usage.SourceUnavailableError{Op: "sacct",
				Err: &transport.RunError{Target: "local", ExitCode: 1, Stderr: "sacct: invalid option"}},
			code: ExitSourceUnavailable,
			want: "accounting source unavailable",
		},
		{
			name: "anything else",
			err:  errors.New("boom"),
			code: ExitFailure,
			want: "boom",
		},
	}

	flagNoColor = true
	defer func() { flagNoColor = false }()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			if code := reportError(&out, tc.err); code != tc.code {
				t.Fatalf("exit code = %d, want %d", code, tc.code)
			}
			if !strings.Contains(out.String(), tc.want) {
				t.Fatalf("output %q does not mention %q", out.String(), tc.want)
			}
			if strings.Contains(tc.name, "persistent") && strings.Contains(out.String(), "try again") {
				t.Fatalf("persistent failures must not suggest retrying: %q", out.String())
			}
		})
	}
}

func TestReportErrorUnwrapsNestedTypes(t *testing.T) {
	flagNoColor = true
	defer func() { flagNoColor = false }()

	wrapped := fmt.Errorf("fetch records: %w",
		&usage.SourceUnavailableError{Op: "sacct", Err: errors.New("timed out")})

	var out bytes.Buffer
	if code := reportError(&out, wrapped); code != ExitSourceUnavailable {
		t.Fatalf("exit code = %d, want %d", code, ExitSourceUnavailable)
	}
}
