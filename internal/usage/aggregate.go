package usage

import (
	"fmt"
	"time"
)

// Accumulation is the aggregator's output: GPU-hours keyed by account and
// partition, plus the account order in which usage was first seen so the
// report stays stable run-to-run.
type Accumulation struct {
	ByAccount map[string]map[string]float64
	Accounts  []string
}

func newAccumulation() Accumulation {
	return Accumulation{ByAccount: make(map[string]map[string]float64)}
}

// EnsureAccount registers an account even when no record contributed to it,
// so an explicitly queried account yields a zero-usage row rather than
// disappearing from the report.
func (a *Accumulation) EnsureAccount(account string) {
	if account == "" {
		return
	}
	if _, ok := a.ByAccount[account]; ok {
		return
	}
	a.ByAccount[account] = make(map[string]float64)
	a.Accounts = append(a.Accounts, account)
}

func (a *Accumulation) add(account, partition string, hours float64) {
	a.EnsureAccount(account)
	a.ByAccount[account][partition] += hours
}

// Aggregate reduces job records into per-account, per-partition GPU-hours.
//
// Records are deduplicated by job ID with the latest-seen revision winning,
// then each surviving record contributes overlap-clamped wall-clock hours
// multiplied by its GPU count. Records without GPUs or without any overlap
// with the window contribute nothing and create no entries. A negative GPU
// count aborts the whole aggregation.
func Aggregate(records []JobRecord, w Window, now time.Time) (Accumulation, error) {
	byJobID := make(map[string]int, len(records))
	deduped := make([]JobRecord, 0, len(records))
	for _, rec := range records {
		if rec.JobID == "" {
			deduped = append(deduped, rec)
			continue
		}
		if idx, seen := byJobID[rec.JobID]; seen {
			deduped[idx] = rec
			continue
		}
		byJobID[rec.JobID] = len(deduped)
		deduped = append(deduped, rec)
	}

	out := newAccumulation()
	for _, rec := range deduped {
		if rec.GPUCount < 0 {
			return Accumulation{}, &AggregationError{
				Detail: fmt.Sprintf("job %s reports negative gpu count %d", rec.JobID, rec.GPUCount),
			}
		}
		if rec.GPUCount == 0 {
			continue
		}
		if rec.Account == "" || rec.Partition == "" {
			continue
		}

		hours := overlapHours(rec, w, now)
		if hours <= 0 {
			continue
		}
		out.add(rec.Account, rec.Partition, hours*float64(rec.GPUCount))
	}

	return out, nil
}

// overlapHours clamps the record's wall-clock interval to the window.
// Unfinished jobs are truncated at the evaluation instant, even when the
// scheduler reports a projected end past it. Records without a usable start
// fall back to the scheduler's own elapsed figure, which is already truncated
// to the query window by sacct.
func overlapHours(rec JobRecord, w Window, now time.Time) float64 {
	if rec.Start.IsZero() {
		if rec.ElapsedSec > 0 {
			return float64(rec.ElapsedSec) / 3600.0
		}
		return 0
	}

	end := rec.End
	if end.IsZero() || (rec.Running(now) && end.After(now)) {
		end = now
	}

	lo := rec.Start
	if w.Start.After(lo) {
		lo = w.Start
	}
	hi := end
	if limit := w.EndInstant(); limit.Before(hi) {
		hi = limit
	}
	if !hi.After(lo) {
		return 0
	}
	return hi.Sub(lo).Hours()
}
