package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	goversion "github.com/hashicorp/go-version"

	"slurm_usage/internal/access"
	"slurm_usage/internal/config"
	"slurm_usage/internal/render"
	"slurm_usage/internal/slurm"
	"slurm_usage/internal/transport"
	"slurm_usage/internal/tui"
	"slurm_usage/internal/usage"
	"slurm_usage/internal/watch"
)

// Backend is the accounting surface the pipeline consumes; *slurm.Client is
// the production implementation, tests substitute fakes.
type Backend interface {
	FetchJobRecords(ctx context.Context, q slurm.RecordQuery) ([]usage.JobRecord, error)
	FetchQuota(ctx context.Context, account string) (*float64, error)
	FetchAccountRoles(ctx context.Context, account, username string) (slurm.AccountRoles, error)
	Version(ctx context.Context) (*goversion.Version, error)
	Source() string
}

type Options struct {
	Settings config.Settings

	// Target is an optional SSH destination; empty means local execution.
	Target string

	Username string
	Account  string
	Start    string
	End      string

	Watch   bool
	Refresh time.Duration
	NoColor bool

	Out io.Writer
}

// missingSlurmCommandsError is typed so callers can distinguish "tools are
// not installed" from transient transport failures.
type missingSlurmCommandsError struct {
	source  string
	missing string
}

func (e *missingSlurmCommandsError) Error() string {
	return fmt.Sprintf("missing required Slurm commands on %s: %s", e.source, e.missing)
}

func Run(opts Options) error {
	// Window validation needs no transport and must come first: contradictory
	// dates fail as an argument error before any command reaches the host.
	window, err := usage.ResolveWindow(opts.Start, opts.End, time.Now())
	if err != nil {
		return err
	}

	tr, err := buildTransport(opts)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := checkSlurmAvailability(ctx, tr, opts.Settings.CommandTimeout.Std()); err != nil {
		return err
	}

	client := slurm.NewClient(tr, slurm.Options{
		CommandTimeout:   opts.Settings.CommandTimeout.Std(),
		AccountingBuffer: opts.Settings.AccountingBuffer.Std(),
		QOS:              opts.Settings.QOS,
	})
	return runWithBackend(ctx, opts, client, window)
}

func runWithBackend(ctx context.Context, opts Options, backend Backend, window usage.Window) error {
	identity, err := resolveIdentity(ctx, opts, backend)
	if err != nil {
		return err
	}

	if identity.ViewAll && opts.Username == "" && opts.Account == "" {
		return &usage.ArgumentError{Reason: "a privileged user must specify a username or an account to report on"}
	}

	decision := access.Evaluate(identity, opts.Username, opts.Account)
	if !decision.Allowed {
		return &usage.AccessDeniedError{Reason: decision.Reason}
	}

	query := slurm.RecordQuery{
		Window:   window,
		Account:  opts.Account,
		AllUsers: decision.AllUsers,
	}
	if !decision.AllUsers {
		query.User = opts.Username
		if query.User == "" {
			query.User = identity.Username
		}
	}

	generatedFor := query.User
	if query.AllUsers {
		generatedFor = "account " + query.Account
	}

	generate := func(ctx context.Context) (usage.Report, error) {
		return generateReport(ctx, backend, query, generatedFor, opts.Settings.Rates)
	}

	if opts.Watch {
		return runWatch(ctx, opts, backend.Source(), generate)
	}

	report, err := generate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(opts.Out, render.Text(report, render.Options{NoColor: opts.NoColor}))
	return nil
}

// generateReport is one full fetch -> aggregate -> reconcile pass. Quota
// lookup failures degrade to a flagged partial report rather than discarding
// usage data that was already fetched.
func generateReport(ctx context.Context, backend Backend, query slurm.RecordQuery, generatedFor string, rates map[string]float64) (usage.Report, error) {
	report := usage.Report{
		Window:       query.Window,
		GeneratedFor: generatedFor,
		Source:       backend.Source(),
	}

	records, err := backend.FetchJobRecords(ctx, query)
	if err != nil {
		var partial *usage.PartialDataError
		if !errors.As(err, &partial) {
			return usage.Report{}, err
		}
		report.Partial = true
		report.PartialDetail = partial.Detail
	}

	now := time.Now()
	report.GeneratedAt = now
	report.Current = query.Window.IsCurrent(now)

	accum, err := usage.Aggregate(records, query.Window, now)
	if err != nil {
		return usage.Report{}, err
	}
	if query.Account != "" {
		accum.EnsureAccount(query.Account)
	}

	quotas := make(map[string]*float64, len(accum.Accounts))
	for _, account := range accum.Accounts {
		limit, err := backend.FetchQuota(ctx, account)
		if err != nil {
			report.Partial = true
			report.PartialDetail = appendDetail(report.PartialDetail,
				fmt.Sprintf("quota lookup failed for account %s", account))
			continue
		}
		quotas[account] = limit
	}

	report.Accounts = usage.Reconcile(accum, quotas, rates)
	return report, nil
}

func appendDetail(existing, detail string) string {
	if existing == "" {
		return detail
	}
	return existing + "; " + detail
}

func runWatch(ctx context.Context, opts Options, source string, generate func(context.Context) (usage.Report, error)) error {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan watch.Update, 8)
	loop := watch.NewLoop(watch.GeneratorFunc(generate), opts.Refresh)
	go loop.Run(watchCtx, updates)

	model := tui.NewModel(tui.Options{
		Source:  source,
		NoColor: opts.NoColor,
		Refresh: opts.Refresh,
		Updates: updates,
	})
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// resolveIdentity builds the capability set for the invoking user. Account
// roles are only fetched when they can change the decision, keeping the
// unprivileged self-report path to a single sacct round trip.
func resolveIdentity(ctx context.Context, opts Options, backend Backend) (access.Identity, error) {
	username := currentUsername()
	if username == "" {
		return access.Identity{}, errors.New("cannot determine the invoking user")
	}

	identity := access.Identity{
		Username: username,
		ViewAll:  username == "root" || containsString(opts.Settings.Operators, username),
	}

	if opts.Account != "" && !identity.ViewAll {
		roles, err := backend.FetchAccountRoles(ctx, opts.Account, username)
		if err != nil {
			return access.Identity{}, err
		}
		if roles.Coordinator {
			identity.CoordinatorOf = append(identity.CoordinatorOf, opts.Account)
		}
		if roles.Member {
			identity.MemberOf = append(identity.MemberOf, opts.Account)
		}
	}

	return identity, nil
}

func currentUsername() string {
	if name := strings.TrimSpace(os.Getenv("USER")); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func buildTransport(opts Options) (transport.Transport, error) {
	if opts.Target == "" {
		return transport.NewLocalTransport(), nil
	}
	return transport.NewSSHTransport(transport.SSHOptions{
		Target:         opts.Target,
		ConfigPath:     opts.Settings.SSH.ConfigPath,
		IdentityFile:   opts.Settings.SSH.IdentityFile,
		Port:           opts.Settings.SSH.Port,
		ConnectTimeout: opts.Settings.ConnectTimeout.Std(),
	}), nil
}

func checkSlurmAvailability(ctx context.Context, tr transport.Transport, timeout time.Duration) error {
	const checkCmd = `missing=""; for c in sacct sshare sacctmgr; do if ! command -v "$c" >/dev/null 2>&1; then missing="$missing $c"; fi; done; if [ -n "$missing" ]; then echo "$missing"; exit 7; fi`

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := tr.Run(checkCtx, checkCmd)
	if err != nil {
		if missing := strings.TrimSpace(res.Stdout); missing != "" {
			return &missingSlurmCommandsError{source: tr.Describe(), missing: missing}
		}
		return &usage.SourceUnavailableError{Op: "preflight", Err: err}
	}
	return nil
}
