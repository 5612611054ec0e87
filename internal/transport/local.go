package transport

import (
	"context"
	"os/exec"
)

// LocalTransport runs commands through a login shell on this machine, for
// invocations directly on a cluster login node.
type LocalTransport struct{}

func NewLocalTransport() *LocalTransport {
	return &LocalTransport{}
}

func (t *LocalTransport) Describe() string {
	return "local"
}

func (t *LocalTransport) Run(ctx context.Context, command string) (RunResult, error) {
	cmd := exec.CommandContext(ctx, "bash", "-lc", command)
	return runCommand(ctx, cmd, command, t.Describe())
}
