package deposit

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
	ethpb "github.com/prysmaticlabs/prysm/v5/proto/prysm/v1alpha1"
)

const (
	pubkeyLen          = 48
	withdrawalCredsLen = 32
	signatureLen       = 96
	dataRootLen        = 32

	// DepositAmountGwei is the stake activating one validator.
	DepositAmountGwei = uint64(32_000_000_000)
)

// Record is one deposit as produced by provisioning. Hex fields are stored
// without a 0x prefix; the prefix is added at use sites.
type Record struct {
	PubKey                string `json:"pubkey"`
	WithdrawalCredentials string `json:"withdrawal_credentials"`
	Signature             string `json:"signature"`
	DepositDataRoot       string `json:"deposit_data_root"`
	Amount                uint64 `json:"amount,omitempty"`
	ForkVersion           string `json:"fork_version,omitempty"`
	NetworkName           string `json:"network_name,omitempty"`
}

// ParsedRecord pairs a Record with its decoded byte fields.
type ParsedRecord struct {
	Record   *Record
	PBData   *ethpb.Deposit_Data
	DataRoot [32]byte
}

// LoadRecords reads a deposit records file (JSON array).
func LoadRecords(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read deposit records file")
	}

	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal deposit records")
	}

	return records, nil
}

// Validate checks that every field is present and hex-decodes to the exact
// expected length. A record failing this check must never be broadcast.
func (r *Record) Validate() error {
	if err := checkHexField("pubkey", r.PubKey, pubkeyLen); err != nil {
		return err
	}

	if err := checkHexField("withdrawal_credentials", r.WithdrawalCredentials, withdrawalCredsLen); err != nil {
		return err
	}

	if err := checkHexField("signature", r.Signature, signatureLen); err != nil {
		return err
	}

	return checkHexField("deposit_data_root", r.DepositDataRoot, dataRootLen)
}

// Parse validates and decodes the record into its byte representation.
func (r *Record) Parse() (*ParsedRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	pubkey, err := hex.DecodeString(strip0x(r.PubKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode pubkey")
	}

	withdrawalCreds, err := hex.DecodeString(strip0x(r.WithdrawalCredentials))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode withdrawal credentials")
	}

	signature, err := hex.DecodeString(strip0x(r.Signature))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode signature")
	}

	rootBytes, err := hex.DecodeString(strip0x(r.DepositDataRoot))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode deposit data root")
	}

	amount := r.Amount
	if amount == 0 {
		amount = DepositAmountGwei
	}

	parsed := &ParsedRecord{
		Record: r,
		PBData: &ethpb.Deposit_Data{
			PublicKey:             pubkey,
			WithdrawalCredentials: withdrawalCreds,
			Amount:                amount,
			Signature:             signature,
		},
	}
	copy(parsed.DataRoot[:], rootBytes)

	return parsed, nil
}

func checkHexField(name, value string, wantLen int) error {
	if value == "" {
		return errors.Errorf("missing %s", name)
	}

	decoded, err := hex.DecodeString(strip0x(value))
	if err != nil {
		return errors.Wrapf(err, "invalid hex in %s", name)
	}

	if len(decoded) != wantLen {
		return errors.Errorf("%s length mismatch: expected %d bytes, got %d", name, wantLen, len(decoded))
	}

	return nil
}

func strip0x(s string) string {
	return strings.TrimPrefix(s, "0x")
}
