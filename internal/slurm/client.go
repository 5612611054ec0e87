// Package slurm adapts the scheduler's accounting tools (sacct, sshare,
// sacctmgr) into the record and quota interfaces the core consumes. The core
// never sees Slurm command syntax; everything here is read-only.
package slurm

import (
	"context"
	"strings"
	"time"

	"slurm_usage/internal/transport"
)

type Options struct {
	CommandTimeout   time.Duration
	AccountingBuffer time.Duration

	// QOS restricts sacct to the configured QOS list; empty means no filter.
	QOS []string
}

type Client struct {
	tr   transport.Transport
	opts Options
}

func NewClient(tr transport.Transport, opts Options) *Client {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 15 * time.Second
	}
	return &Client{tr: tr, opts: opts}
}

func (c *Client) Source() string {
	return c.tr.Describe()
}

// run executes one accounting command with the configured timeout. Failures
// are never retried here; a report is always the product of exactly one
// query per adapter call.
func (c *Client) run(ctx context.Context, command string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, c.opts.CommandTimeout)
	defer cancel()

	res, err := c.tr.Run(cmdCtx, command)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(res.Stdout, "\n"), nil
}
