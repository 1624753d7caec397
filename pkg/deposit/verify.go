package deposit

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/prysm/v5/beacon-chain/core/signing"
	"github.com/prysmaticlabs/prysm/v5/config/params"
	prysmdeposit "github.com/prysmaticlabs/prysm/v5/contracts/deposit"
	ethpb "github.com/prysmaticlabs/prysm/v5/proto/prysm/v1alpha1"
)

// VerifyRecords BLS-verifies the deposit signature of every record against
// its fork version. Records missing a fork version fall back to
// defaultForkVersion (hex, no prefix).
func VerifyRecords(records []*Record, defaultForkVersion string) error {
	for _, r := range records {
		parsed, err := r.Parse()
		if err != nil {
			return errors.Wrapf(err, "invalid deposit for pubkey %s", r.PubKey)
		}

		fv := r.ForkVersion
		if fv == "" {
			fv = defaultForkVersion
		}

		forkVersion, err := hex.DecodeString(strip0x(fv))
		if err != nil {
			return errors.Wrap(err, "failed to decode fork version")
		}

		ok, err := IsValidDepositSignature(parsed.PBData, forkVersion)
		if err != nil {
			return errors.Wrapf(err, "invalid deposit for pubkey %s", r.PubKey)
		}

		if !ok {
			return errors.Errorf("invalid deposit signature for pubkey %s", r.PubKey)
		}
	}

	return nil
}

func IsValidDepositSignature(data *ethpb.Deposit_Data, forkVersion []byte) (bool, error) {
	domain, err := signing.ComputeDomain(params.BeaconConfig().DomainDeposit, forkVersion, nil)
	if err != nil {
		return false, err
	}

	if err := prysmdeposit.VerifyDepositSignature(data, domain); err != nil {
		return false, err
	}

	return true, nil
}
