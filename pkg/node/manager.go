package node

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultReadyTimeout = 2 * time.Minute
	defaultPollInterval = 2 * time.Second
	defaultRestartDelay = 3 * time.Second
)

// Manager starts, stops and inspects the three node process groups through
// the container runtime. It keeps no state of its own: the runtime is
// queried on every call.
type Manager struct {
	ComposeFile  string
	Variant      string
	ExecutionRPC string
	BeaconAPI    string

	ReadyTimeout time.Duration
	PollInterval time.Duration
	RestartDelay time.Duration

	HTTPClient *http.Client
}

// NewManager constructs a Manager for one compose deployment. variant
// selects an optional compose profile and may be empty.
func NewManager(composeFile, executionRPC, beaconAPI, variant string) *Manager {
	log.Info("Creating new node Manager")
	log.Infof("Compose file: %s", composeFile)
	log.Infof("Execution RPC: %s", executionRPC)
	log.Infof("Beacon API: %s", beaconAPI)

	if variant != "" {
		log.Infof("Variant: %s", variant)
	}

	return &Manager{
		ComposeFile:  composeFile,
		Variant:      variant,
		ExecutionRPC: executionRPC,
		BeaconAPI:    beaconAPI,
		ReadyTimeout: defaultReadyTimeout,
		PollInterval: defaultPollInterval,
		RestartDelay: defaultRestartDelay,
	}
}

func (m *Manager) httpClient() *http.Client {
	if m.HTTPClient != nil {
		return m.HTTPClient
	}

	return &http.Client{Timeout: 10 * time.Second}
}

// Start brings one process group up. Starting an already-running group is a
// no-op success.
func (m *Manager) Start(ctx context.Context, role Role) error {
	running, err := m.runningServices()
	if err != nil {
		return errors.Wrap(err, "failed to query container runtime")
	}

	if running[string(role)] {
		log.Infof("%s is already running", role)

		return nil
	}

	log.Infof("Starting %s", role)

	if _, err := m.runCompose("up", "-d", string(role)); err != nil {
		return errors.Wrapf(err, "failed to start %s", role)
	}

	return nil
}

// StartAll starts all groups in dependency order, polling each dependency's
// health surface before starting its dependents.
func (m *Manager) StartAll(ctx context.Context) error {
	for _, role := range startOrder {
		if err := m.Start(ctx, role); err != nil {
			return err
		}

		switch role {
		case RoleExecution:
			if err := m.waitForExecutionReady(ctx); err != nil {
				return errors.Wrap(err, "execution layer never became ready")
			}
		case RoleConsensus:
			if err := m.waitForConsensusReady(ctx); err != nil {
				return errors.Wrap(err, "consensus layer never became ready")
			}
		}
	}

	log.Info("All node groups started")

	return nil
}

// Stop brings one process group down. Stopping an already-stopped group
// succeeds with a warning.
func (m *Manager) Stop(ctx context.Context, role Role) error {
	running, err := m.runningServices()
	if err != nil {
		return errors.Wrap(err, "failed to query container runtime")
	}

	if !running[string(role)] {
		log.Warnf("%s is already stopped", role)

		return nil
	}

	log.Infof("Stopping %s", role)

	if _, err := m.runCompose("stop", string(role)); err != nil {
		return errors.Wrapf(err, "failed to stop %s", role)
	}

	return nil
}

// StopAll stops all groups in reverse dependency order.
func (m *Manager) StopAll(ctx context.Context) error {
	for _, role := range stopOrder {
		if err := m.Stop(ctx, role); err != nil {
			return err
		}
	}

	log.Info("All node groups stopped")

	return nil
}

// Restart stops and then starts one group with a fixed delay in between.
func (m *Manager) Restart(ctx context.Context, role Role) error {
	if err := m.Stop(ctx, role); err != nil {
		return err
	}

	time.Sleep(m.RestartDelay)

	return m.Start(ctx, role)
}

// RestartAll stops every group, then starts them all again in order.
func (m *Manager) RestartAll(ctx context.Context) error {
	if err := m.StopAll(ctx); err != nil {
		return err
	}

	time.Sleep(m.RestartDelay)

	return m.StartAll(ctx)
}

// waitForExecutionReady polls the execution RPC until it answers a block
// number query.
func (m *Manager) waitForExecutionReady(ctx context.Context) error {
	log.Infof("Waiting for execution RPC at %s", m.ExecutionRPC)

	return waitForCondition(m.ReadyTimeout, m.PollInterval, func() (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if _, err := m.executionBlockHeight(ctx); err != nil {
			log.WithError(err).Debug("Execution RPC not ready yet")

			return false, nil
		}

		return true, nil
	})
}

// waitForConsensusReady polls the beacon API until it serves a head header.
func (m *Manager) waitForConsensusReady(ctx context.Context) error {
	log.Infof("Waiting for beacon API at %s", m.BeaconAPI)

	return waitForCondition(m.ReadyTimeout, m.PollInterval, func() (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if _, err := m.consensusHeadSlot(ctx); err != nil {
			log.WithError(err).Debug("Beacon API not ready yet")

			return false, nil
		}

		return true, nil
	})
}
