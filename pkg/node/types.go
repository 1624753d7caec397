package node

import (
	"github.com/pkg/errors"
)

// Role identifies one logical node process group.
type Role string

const (
	RoleExecution Role = "execution"
	RoleConsensus Role = "consensus"
	RoleValidator Role = "validator"
)

// startOrder lists roles in dependency order: consensus needs the execution
// RPC surface, validator needs the beacon API.
var startOrder = []Role{RoleExecution, RoleConsensus, RoleValidator}

// stopOrder is the reverse of startOrder.
var stopOrder = []Role{RoleValidator, RoleConsensus, RoleExecution}

// ParseRole maps a CLI argument to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleExecution, RoleConsensus, RoleValidator:
		return Role(s), nil
	default:
		return "", errors.Errorf("unknown role: %s (expected execution, consensus or validator)", s)
	}
}

// GroupStatus reports the live state of one process group. Detail carries a
// best-effort metric (block height, head slot) and stays empty when the
// metric endpoint is unreachable.
type GroupStatus struct {
	Role    Role
	Running bool
	Detail  string
}

// ErrDependencyMissing marks a required external tool that is not installed.
var ErrDependencyMissing = errors.New("required tool not installed")
