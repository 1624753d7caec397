package node

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

type commander interface {
	CombinedOutput() ([]byte, error)
}

var execCommand = func(name string, args ...string) commander {
	return exec.Command(name, args...)
}

// streamCommand builds the cancellable process used for log attachment.
var streamCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// CheckDependencies verifies the container runtime is installed.
func CheckDependencies() error {
	if _, err := exec.LookPath("docker"); err != nil {
		return errors.Wrap(ErrDependencyMissing,
			"'docker' not found. Please install Docker first: https://docs.docker.com/engine/install/")
	}

	return nil
}

// composeArgs prefixes every compose invocation with the compose file and
// optional profile.
func (m *Manager) composeArgs(args ...string) []string {
	out := []string{"compose", "-f", m.ComposeFile}

	if m.Variant != "" {
		out = append(out, "--profile", m.Variant)
	}

	return append(out, args...)
}

// runCompose executes one compose subcommand and returns its raw output.
func (m *Manager) runCompose(args ...string) (string, error) {
	full := m.composeArgs(args...)

	log.Debugf("Executing command: docker %s", strings.Join(full, " "))

	cmd := execCommand("docker", full...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), errors.Wrapf(err, "docker compose failed: %s", string(output))
	}

	return string(output), nil
}

// runningServices queries the runtime for the compose services currently in
// the running state. Truth is re-derived on every call, never cached.
func (m *Manager) runningServices() (map[string]bool, error) {
	output, err := m.runCompose("ps", "--services", "--status", "running")
	if err != nil {
		return nil, err
	}

	running := make(map[string]bool)

	for _, line := range strings.Split(output, "\n") {
		service := strings.TrimSpace(line)
		if service != "" {
			running[service] = true
		}
	}

	return running, nil
}

// Logs attaches to the live output stream of one role's process group and
// blocks until the context is cancelled or the stream ends.
func (m *Manager) Logs(ctx context.Context, role Role, follow bool) error {
	args := []string{"logs"}
	if follow {
		args = append(args, "--follow")
	}

	args = append(args, string(role))

	full := m.composeArgs(args...)

	log.Debugf("Executing command: docker %s", strings.Join(full, " "))

	cmd := streamCommand(ctx, "docker", full...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			// Interrupted by the caller, not a failure.
			return nil
		}

		return errors.Wrapf(err, "failed to stream logs for %s", role)
	}

	return nil
}
