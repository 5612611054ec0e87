package slurm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numPrefixRe = regexp.MustCompile(`^-?\d+`)

// parseInt tolerates trailing garbage by taking the leading numeric prefix;
// accounting fields sometimes carry unit suffixes.
func parseInt(v string) int {
	if v == "" {
		return 0
	}
	match := numPrefixRe.FindString(v)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

// parseGPUCount reads the gres/gpu entry from a TRES string such as
// "cpu=8,mem=64G,gres/gpu=2". When GPUs are allocated, AllocTRES carries the
// generic gres/gpu key alongside typed entries like gres/gpu:a100 for the
// same devices, so typed entries are only summed when the generic key is
// absent.
func parseGPUCount(tres string) int {
	if tres == "" {
		return 0
	}
	typed := 0
	for _, part := range strings.Split(tres, ",") {
		part = strings.TrimSpace(part)
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		if key == "gres/gpu" {
			return parseInt(strings.TrimSpace(kv[1]))
		}
		if strings.HasPrefix(key, "gres/gpu:") {
			typed += parseInt(strings.TrimSpace(kv[1]))
		}
	}
	return typed
}

// parseSacctTime returns zero for the placeholders sacct emits when a job
// has not started or finished.
func parseSacctTime(v string) time.Time {
	switch v {
	case "", "Unknown", "None", "N/A":
		return time.Time{}
	}
	t, err := time.ParseInLocation(sacctTimeLayout, v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// tresValue extracts a single key's value from a TRES string, "" when the
// key is absent.
func tresValue(tres, key string) string {
	for _, part := range strings.Split(tres, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		if strings.TrimSpace(kv[0]) == key {
			return strings.TrimSpace(kv[1])
		}
	}
	return ""
}
