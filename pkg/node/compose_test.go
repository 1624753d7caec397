package node

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogsStreamEnds(t *testing.T) {
	origStreamCommand := streamCommand
	streamCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		assert.Equal(t, "docker", name)
		assert.Contains(t, args, "logs")
		assert.Contains(t, args, "execution")

		return exec.CommandContext(ctx, "true")
	}

	defer func() { streamCommand = origStreamCommand }()

	m := NewManager("compose.yml", "http://localhost:8545", "http://localhost:5052", "")

	err := m.Logs(context.Background(), RoleExecution, false)
	assert.NoError(t, err)
}

func TestLogsCancellation(t *testing.T) {
	origStreamCommand := streamCommand
	streamCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		assert.Contains(t, args, "--follow")

		return exec.CommandContext(ctx, "sleep", "30")
	}

	defer func() { streamCommand = origStreamCommand }()

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	m := NewManager("compose.yml", "http://localhost:8545", "http://localhost:5052", "")

	start := time.Now()
	err := m.Logs(ctx, RoleConsensus, true)

	// Cancellation is the caller interrupting, not a failure.
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestLogsCommandFailure(t *testing.T) {
	origStreamCommand := streamCommand
	streamCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "false")
	}

	defer func() { streamCommand = origStreamCommand }()

	m := NewManager("compose.yml", "http://localhost:8545", "http://localhost:5052", "")

	err := m.Logs(context.Background(), RoleValidator, false)
	assert.Error(t, err)
}
