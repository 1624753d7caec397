package keystore

// ValidatorRecord summarizes one provisioned validator. Secret material is
// written to disk by the provisioner and never returned to callers.
type ValidatorRecord struct {
	Index  uint64 `json:"index"`
	Pubkey string `json:"pubkey"`
}

// manifestEntry is one record of the batch manifest produced by the external
// validator-manager tool. The voting keystore arrives as an embedded
// JSON-encoded string; the password is plaintext.
type manifestEntry struct {
	Enabled         *bool  `json:"enabled"`
	VotingKeystore  string `json:"voting_keystore"`
	VotingPassword  string `json:"voting_keystore_password"`
	DepositGwei     uint64 `json:"deposit_gwei,omitempty"`
	GraffitiComment string `json:"graffiti,omitempty"`
}

// votingKeystore is the subset of the EIP-2335 keystore JSON the provisioner
// inspects. The blob is persisted verbatim; only the pubkey is read.
type votingKeystore struct {
	Pubkey string `json:"pubkey"`
}

// ProvisionSummary reports the outcome of one provisioning run.
type ProvisionSummary struct {
	Requested  uint64
	Written    uint64
	Skipped    uint64
	Validators []ValidatorRecord
}
