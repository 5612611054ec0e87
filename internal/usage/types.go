package usage

import (
	"strings"
	"time"
)

// JobRecord is one accounting row as reported by the scheduler. Records are
// immutable inputs; the aggregator never mutates them.
type JobRecord struct {
	JobID     string
	User      string
	Account   string
	Partition string
	State     string
	QOS       string

	Start time.Time // zero when the scheduler reported no start
	End   time.Time // zero while the job is still running

	ElapsedSec int
	GPUCount   int
}

// Running reports whether the record describes a job that has not finished.
// Scheduler states can carry suffixes ("CANCELLED by 1234"), so this matches
// by substring like the rest of the state handling.
func (r JobRecord) Running(now time.Time) bool {
	if strings.Contains(strings.ToUpper(r.State), "RUNNING") {
		return true
	}
	return r.End.IsZero() && !r.Start.IsZero() && r.Start.Before(now)
}

type PartitionUsage struct {
	Partition string
	GPUHours  float64
	Cost      float64 // zero unless a rate is configured for the partition
}

type AccountUsage struct {
	Account       string
	TotalGPUHours float64
	TotalCost     float64

	// QuotaLimit is nil when the registry has no configured ceiling for the
	// account. nil must render as "n/a", never as zero.
	QuotaLimit *float64

	Partitions []PartitionUsage
}

// Report is the stable contract handed to the presentation layer.
type Report struct {
	Window       Window
	Accounts     []AccountUsage
	GeneratedFor string
	Source       string
	GeneratedAt  time.Time

	// Current means the window ends today, so accounting data for the most
	// recent jobs may still be incomplete.
	Current bool

	Partial       bool
	PartialDetail string
}

// Total sums GPU-hours across all accounts in the report.
func (r Report) Total() float64 {
	var total float64
	for _, acct := range r.Accounts {
		total += acct.TotalGPUHours
	}
	return total
}
