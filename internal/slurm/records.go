package slurm

import (
	"context"
	"fmt"
	"strings"

	"slurm_usage/internal/usage"
)

// sacct is asked for parent jobs only (-X): GPUs are allocated at job
// granularity on this cluster, and step rows would double-count.
const (
	sacctFields     = "JobID,User,State,Start,End,ElapsedRaw,AllocTRES,Partition,Account,QOS"
	sacctFieldCount = 10
	sacctTimeLayout = "2006-01-02T15:04:05"
)

// RecordQuery narrows the sacct fetch. AllUsers expands the query to every
// member of the account and requires a prior authorization decision.
type RecordQuery struct {
	Window   usage.Window
	User     string
	Account  string
	AllUsers bool
}

// FetchJobRecords queries sacct for the window plus the accounting buffer.
// A transport failure maps to SourceUnavailable. Rows that do not parse into
// the expected field count are dropped and surfaced as PartialData alongside
// the records that did parse.
func (c *Client) FetchJobRecords(ctx context.Context, q RecordQuery) ([]usage.JobRecord, error) {
	raw, err := c.run(ctx, c.sacctCommand(q))
	if err != nil {
		return nil, &usage.SourceUnavailableError{Op: "sacct", Err: err}
	}

	records := make([]usage.JobRecord, 0, 64)
	malformed := 0
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rec, ok := parseJobLine(line)
		if !ok {
			malformed++
			continue
		}
		records = append(records, rec)
	}

	if malformed > 0 {
		return records, &usage.PartialDataError{
			Detail: fmt.Sprintf("%d accounting row(s) could not be parsed and were skipped", malformed),
		}
	}
	return records, nil
}

func (c *Client) sacctCommand(q RecordQuery) string {
	parts := []string{
		"sacct", "-n", "-P", "-X",
		"-S", q.Window.Start.Format("2006-01-02"),
		"-E", q.Window.QueryEnd(c.opts.AccountingBuffer).Format(sacctTimeLayout),
		"--format=" + sacctFields,
		"--truncate",
	}
	if len(c.opts.QOS) > 0 {
		parts = append(parts, "--qos="+strings.Join(c.opts.QOS, ","))
	}
	if q.Account != "" {
		parts = append(parts, "-A", q.Account)
	}
	switch {
	case q.AllUsers:
		parts = append(parts, "-a")
	case q.User != "":
		parts = append(parts, "-u", q.User)
	}
	return strings.Join(parts, " ")
}

func parseJobLine(line string) (usage.JobRecord, bool) {
	parts := strings.Split(line, "|")
	if len(parts) != sacctFieldCount {
		return usage.JobRecord{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	rec := usage.JobRecord{
		JobID:      parts[0],
		User:       parts[1],
		State:      strings.ToUpper(parts[2]),
		ElapsedSec: parseInt(parts[5]),
		GPUCount:   parseGPUCount(parts[6]),
		Partition:  parts[7],
		Account:    parts[8],
		QOS:        parts[9],
	}
	if rec.JobID == "" {
		return usage.JobRecord{}, false
	}
	rec.Start = parseSacctTime(parts[3])
	rec.End = parseSacctTime(parts[4])
	return rec, true
}
