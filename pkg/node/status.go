package node

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// executionClient is the slice of the ethclient surface used for the
// execution metric probe.
type executionClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

var dialExecution = func(rawurl string) (executionClient, error) {
	return ethclient.Dial(rawurl)
}

// Status queries the runtime for the live state of every role. Metric
// lookups are best-effort: an unreachable endpoint degrades the detail to
// empty, it never fails the call.
func (m *Manager) Status(ctx context.Context) (map[Role]GroupStatus, error) {
	running, err := m.runningServices()
	if err != nil {
		return nil, errors.Wrap(err, "failed to query container runtime")
	}

	statuses := make(map[Role]GroupStatus, len(startOrder))

	for _, role := range startOrder {
		status := GroupStatus{
			Role:    role,
			Running: running[string(role)],
		}

		if status.Running {
			status.Detail = m.roleMetric(ctx, role)
		}

		statuses[role] = status
	}

	return statuses, nil
}

func (m *Manager) roleMetric(ctx context.Context, role Role) string {
	switch role {
	case RoleExecution:
		height, err := m.executionBlockHeight(ctx)
		if err != nil {
			log.WithError(err).Debug("Execution metric unavailable")

			return ""
		}

		return fmt.Sprintf("block %d", height)
	case RoleConsensus:
		slot, err := m.consensusHeadSlot(ctx)
		if err != nil {
			log.WithError(err).Debug("Consensus metric unavailable")

			return ""
		}

		return fmt.Sprintf("slot %s", slot)
	default:
		return ""
	}
}

func (m *Manager) executionBlockHeight(ctx context.Context) (uint64, error) {
	client, err := dialExecution(m.ExecutionRPC)
	if err != nil {
		return 0, errors.Wrap(err, "failed to dial execution RPC")
	}

	height, err := client.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to fetch block number")
	}

	return height, nil
}

func (m *Manager) consensusHeadSlot(ctx context.Context) (string, error) {
	url := m.BeaconAPI + "/eth/v1/beacon/headers/head"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", errors.Wrap(err, "failed to create request")
	}

	resp, err := m.httpClient().Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch beacon head")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("beacon API returned status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read beacon response")
	}

	var header struct {
		Data struct {
			Header struct {
				Message struct {
					Slot string `json:"slot"`
				} `json:"message"`
			} `json:"header"`
		} `json:"data"`
	}

	if err := json.Unmarshal(body, &header); err != nil {
		return "", errors.Wrap(err, "failed to parse beacon head response")
	}

	if header.Data.Header.Message.Slot == "" {
		return "", errors.New("beacon head response missing slot")
	}

	return header.Data.Header.Message.Slot, nil
}
