package slurm

import (
	"context"
	"strconv"
	"strings"

	"slurm_usage/internal/usage"
)

// FetchQuota reads the account's GPU-hour ceiling from sshare. Slurm stores
// the limit as GrpTRESMins gres/gpu minutes; it is converted to hours here.
// A nil result means the account has no configured limit, which is distinct
// from a zero limit and must stay distinct all the way to presentation.
func (c *Client) FetchQuota(ctx context.Context, account string) (*float64, error) {
	command := strings.Join([]string{
		"sshare", "-A", account, "-n", "-P", "-o", "Account,GrpTRESMins",
	}, " ")

	raw, err := c.run(ctx, command)
	if err != nil {
		return nil, &usage.SourceUnavailableError{Op: "sshare", Err: err}
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		if len(parts) < 2 || strings.TrimSpace(parts[0]) != account {
			continue
		}
		minutes := tresValue(parts[1], "gres/gpu")
		if minutes == "" {
			continue
		}
		v, err := strconv.ParseFloat(minutes, 64)
		if err != nil {
			continue
		}
		hours := v / 60.0
		return &hours, nil
	}
	return nil, nil
}
