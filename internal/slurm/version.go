package slurm

import (
	"context"
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"slurm_usage/internal/usage"
)

// Version probes the accounting tool version ("slurm 23.02.7"). Used by the
// doctor preflight to compare against the configured floor.
func (c *Client) Version(ctx context.Context) (*goversion.Version, error) {
	raw, err := c.run(ctx, "sacct --version")
	if err != nil {
		return nil, &usage.SourceUnavailableError{Op: "sacct --version", Err: err}
	}

	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty sacct version output")
	}
	v, err := goversion.NewVersion(fields[len(fields)-1])
	if err != nil {
		return nil, fmt.Errorf("unrecognized sacct version output %q: %w", raw, err)
	}
	return v, nil
}
