package slurm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"slurm_usage/internal/transport"
	"slurm_usage/internal/usage"
)

type fakeTransport struct {
	commands []string
	stdout   string
	err      error
}

func (f *fakeTransport) Run(ctx context.Context, command string) (transport.RunResult, error) {
	f.commands = append(f.commands, command)
	if f.err != nil {
		return transport.RunResult{}, f.err
	}
	return transport.RunResult{Stdout: f.stdout}, nil
}

func (f *fakeTransport) Describe() string {
	return "fake"
}

func testWindow() usage.Window {
	return usage.Window{
		Start: time.Date(2024, 9, 1, 0, 0, 0, 0, time.Local),
		End:   time.Date(2024, 9, 10, 0, 0, 0, 0, time.Local),
	}
}

func TestSacctCommandShape(t *testing.T) {
	ft := &fakeTransport{}
	client := NewClient(ft, Options{
		AccountingBuffer: 15 * time.Minute,
		QOS:              []string{"normal_qos", "large_qos"},
	})

	_, err := client.FetchJobRecords(context.Background(), RecordQuery{
		Window:  testWindow(),
		User:    "alice",
		Account: "msc01",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if len(ft.commands) != 1 {
		t.Fatalf("expected one command, got %d", len(ft.commands))
	}
	cmd := ft.commands[0]
	for _, token := range []string{
		"sacct -n -P -X",
		"-S 2024-09-01",
		"-E 2024-09-11T00:15:00",
		"--format=" + sacctFields,
		"--truncate",
		"--qos=normal_qos,large_qos",
		"-A msc01",
		"-u alice",
	} {
		if !strings.Contains(cmd, token) {
			t.Fatalf("expected token %q in command: %s", token, cmd)
		}
	}
}

func TestSacctCommandAllUsersReplacesUserFilter(t *testing.T) {
	ft := &fakeTransport{}
	client := NewClient(ft, Options{})

	_, err := client.FetchJobRecords(context.Background(), RecordQuery{
		Window:   testWindow(),
		Account:  "msc01",
		AllUsers: true,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	cmd := ft.commands[0]
	if !strings.Contains(cmd, " -a") {
		t.Fatalf("expected -a in command: %s", cmd)
	}
	if strings.Contains(cmd, "-u ") {
		t.Fatalf("did not expect user filter in command: %s", cmd)
	}
}

func TestFetchJobRecordsTransportFailure(t *testing.T) {
	ft := &fakeTransport{err: errors.New("connection refused")}
	client := NewClient(ft, Options{})

	_, err := client.FetchJobRecords(context.Background(), RecordQuery{Window: testWindow()})
	var unavailable *usage.SourceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected SourceUnavailableError, got %v", err)
	}
	if unavailable.Op != "sacct" {
		t.Fatalf("unexpected op: %q", unavailable.Op)
	}
}

func TestFetchJobRecordsMalformedRowsArePartialData(t *testing.T) {
	ft := &fakeTransport{stdout: strings.Join([]string{
		"1|alice|COMPLETED|2024-09-01T00:00:00|2024-09-01T01:00:00|3600|gres/gpu=1|normal|msc01|normal_qos",
		"mangled row without separators",
		"2|alice|COMPLETED|2024-09-02T00:00:00|2024-09-02T01:00:00|3600|gres/gpu=1|normal|msc01|normal_qos",
	}, "\n")}
	client := NewClient(ft, Options{})

	records, err := client.FetchJobRecords(context.Background(), RecordQuery{Window: testWindow()})
	var partial *usage.PartialDataError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialDataError, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected parsed records alongside the partial error, got %d", len(records))
	}
}

func TestFetchQuota(t *testing.T) {
	ft := &fakeTransport{stdout: "msc01|cpu=72000,gres/gpu=1800\nmsc01 child|cpu=1"}
	client := NewClient(ft, Options{})

	limit, err := client.FetchQuota(context.Background(), "msc01")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if limit == nil {
		t.Fatalf("expected a quota limit")
	}
	if *limit != 30.0 {
		t.Fatalf("expected 1800 gpu-minutes to become 30 gpu-hours, got %v", *limit)
	}
}

func TestFetchQuotaAbsent(t *testing.T) {
	ft := &fakeTransport{stdout: "msc01|cpu=72000"}
	client := NewClient(ft, Options{})

	limit, err := client.FetchQuota(context.Background(), "msc01")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if limit != nil {
		t.Fatalf("expected nil limit for account without gpu ceiling, got %v", *limit)
	}
}

func TestFetchAccountRoles(t *testing.T) {
	ft := &fakeTransport{stdout: "msc01|msc01 project|uni|carol,alice"}
	client := NewClient(ft, Options{})

	roles, err := client.FetchAccountRoles(context.Background(), "msc01", "alice")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !roles.Coordinator {
		t.Fatalf("expected alice to be a coordinator")
	}
	// The same fixture stands in for the association query; any non-empty
	// output marks membership.
	if !roles.Member {
		t.Fatalf("expected alice to be a member")
	}
	if len(ft.commands) != 2 {
		t.Fatalf("expected coordinator and association queries, got %v", ft.commands)
	}
}

func TestRunNeverRetries(t *testing.T) {
	ft := &fakeTransport{err: &transport.RunError{Timeout: true}}
	client := NewClient(ft, Options{})

	if _, err := client.Version(context.Background()); err == nil {
		t.Fatalf("expected error to surface")
	}
	if len(ft.commands) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(ft.commands))
	}
}

func TestVersionParsing(t *testing.T) {
	ft := &fakeTransport{stdout: "slurm 23.02.7\n"}
	client := NewClient(ft, Options{})

	v, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if v.String() != "23.2.7" {
		t.Fatalf("unexpected version: %s", v)
	}
}
