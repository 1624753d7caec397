package deposit

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	ethparams "github.com/ethereum/go-ethereum/params"
	"github.com/pkg/errors"
)

// ErrInvalidKey marks a signing key that is not 32 bytes of hex.
var ErrInvalidKey = errors.New("invalid signing key")

// depositABI is the canonical deposit contract entrypoint.
const depositABI = `[{"name":"deposit","type":"function","stateMutability":"payable","inputs":[{"name":"pubkey","type":"bytes"},{"name":"withdrawal_credentials","type":"bytes"},{"name":"signature","type":"bytes"},{"name":"deposit_data_root","type":"bytes32"}],"outputs":[]}]`

const depositGasLimit = uint64(500_000)

// interSendDelay spaces consecutive sends to avoid nonce races in the
// node's mempool.
const interSendDelay = 2 * time.Second

// Status classifies one broadcast attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Outcome records the result of one deposit attempt. A success with an empty
// TxHash means the node accepted the transaction but no receipt was awaited.
type Outcome struct {
	Index  int
	PubKey string
	TxHash string
	Status Status
}

// Summary aggregates a broadcast run.
type Summary struct {
	Succeeded  uint64
	Failed     uint64
	PerDeposit []Outcome
}

// rpcClient is the slice of the ethclient surface the broadcaster uses.
type rpcClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account ethcommon.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
}

var dialClient = func(rawurl string) (rpcClient, error) {
	return ethclient.Dial(rawurl)
}

// Broadcaster submits one funding transaction per deposit record,
// sequentially and without retries. A failed send is counted and the batch
// continues; success means "accepted for broadcast", not "mined".
type Broadcaster struct {
	RPCEndpoint     string
	ChainID         uint64
	DepositContract ethcommon.Address
	DryRun          bool

	// Confirm resolves warn-and-override prompts. Nil means interactive
	// stdin prompt; tests and --yes install their own.
	Confirm func(prompt string) bool

	// Delay overrides interSendDelay when non-negative, for tests.
	Delay time.Duration

	privateKey *ecdsa.PrivateKey
	sender     ethcommon.Address
	contract   abi.ABI
}

// NewBroadcaster parses the signing key and prepares the contract ABI.
func NewBroadcaster(rpcEndpoint string, chainID uint64, depositContract string, signingKey string, dryRun bool) (*Broadcaster, error) {
	if !ethcommon.IsHexAddress(depositContract) {
		return nil, errors.Errorf("invalid deposit contract address: %s", depositContract)
	}

	key, err := parseSigningKey(signingKey)
	if err != nil {
		return nil, err
	}

	contract, err := abi.JSON(strings.NewReader(depositABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse deposit contract ABI")
	}

	b := &Broadcaster{
		RPCEndpoint:     rpcEndpoint,
		ChainID:         chainID,
		DepositContract: ethcommon.HexToAddress(depositContract),
		DryRun:          dryRun,
		Delay:           -1,
		privateKey:      key,
		sender:          crypto.PubkeyToAddress(key.PublicKey),
		contract:        contract,
	}

	log.Infof("Broadcaster created for sender %s", b.sender.Hex())
	log.Infof("Deposit contract: %s", b.DepositContract.Hex())
	log.Infof("RPC endpoint: %s", rpcEndpoint)
	log.Infof("Dry run: %v", dryRun)

	return b, nil
}

func parseSigningKey(signingKey string) (*ecdsa.PrivateKey, error) {
	trimmed := strip0x(strings.TrimSpace(signingKey))

	keyBytes, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, "signing key is not valid hex")
	}

	if len(keyBytes) != 32 {
		return nil, errors.Wrapf(ErrInvalidKey, "signing key must be 32 bytes, got %d", len(keyBytes))
	}

	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKey, err.Error())
	}

	return key, nil
}

// Sender returns the address derived from the signing key.
func (b *Broadcaster) Sender() ethcommon.Address {
	return b.sender
}

// Broadcast runs the preflight checks and then processes every record in
// order. One malformed or failed deposit never aborts the batch.
func (b *Broadcaster) Broadcast(ctx context.Context, records []*Record) (*Summary, error) {
	if len(records) == 0 {
		return nil, errors.New("no deposit records to broadcast")
	}

	var client rpcClient

	if !b.DryRun {
		var err error

		client, err = b.preflight(ctx, len(records))
		if err != nil {
			return nil, err
		}
	}

	summary := &Summary{
		PerDeposit: make([]Outcome, 0, len(records)),
	}

	for i, record := range records {
		outcome := b.processRecord(ctx, client, i, record)

		if outcome.Status == StatusSuccess {
			summary.Succeeded++
		} else {
			summary.Failed++
		}

		summary.PerDeposit = append(summary.PerDeposit, outcome)

		if !b.DryRun && outcome.Status == StatusSuccess && i < len(records)-1 {
			time.Sleep(b.sendDelay())
		}
	}

	log.Infof("Broadcast complete: %d succeeded, %d failed", summary.Succeeded, summary.Failed)

	return summary, nil
}

// preflight dials the endpoint, probes liveness and checks the sender can
// cover the whole batch. Balance problems warn and ask for an override
// rather than hard-blocking, since test networks routinely run underfunded
// probes.
func (b *Broadcaster) preflight(ctx context.Context, count int) (rpcClient, error) {
	client, err := dialClient(b.RPCEndpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial RPC endpoint: %s", b.RPCEndpoint)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "RPC endpoint unreachable: %s", b.RPCEndpoint)
	}

	if chainID.Uint64() != b.ChainID {
		log.Warnf("Chain ID mismatch: endpoint reports %d, configured %d", chainID.Uint64(), b.ChainID)
	}

	required := new(big.Int).Mul(
		new(big.Int).Mul(big.NewInt(32), big.NewInt(int64(count))),
		big.NewInt(ethparams.Ether),
	)

	balance, err := client.BalanceAt(ctx, b.sender, nil)
	if err != nil {
		log.WithError(err).Warn("Could not query sender balance")

		if !b.confirm(fmt.Sprintf("Sender balance unknown, need %s wei for %d deposit(s). Continue anyway?", required, count)) {
			return nil, errors.New("aborted by operator: sender balance unknown")
		}

		return client, nil
	}

	log.Infof("Sender balance: %s wei, required: %s wei", balance, required)

	if balance.Cmp(required) < 0 {
		log.Warnf("Insufficient balance for %d deposit(s): have %s, need %s", count, balance, required)

		if !b.confirm("Sender balance is insufficient. Continue anyway?") {
			return nil, errors.New("aborted by operator: insufficient balance")
		}
	}

	return client, nil
}

func (b *Broadcaster) processRecord(ctx context.Context, client rpcClient, index int, record *Record) Outcome {
	outcome := Outcome{
		Index:  index,
		PubKey: record.PubKey,
	}

	parsed, err := record.Parse()
	if err != nil {
		log.WithError(err).Errorf("Skipping malformed deposit %d", index)

		outcome.Status = StatusFailed

		return outcome
	}

	if b.DryRun {
		log.Infof("[dry-run] Deposit %d for pubkey 0x%s validated", index, strip0x(record.PubKey))

		outcome.Status = StatusSuccess

		return outcome
	}

	txHash, err := b.send(ctx, client, parsed)
	if err != nil {
		log.Errorf("Deposit %d failed: %v", index, err)

		outcome.Status = StatusFailed

		return outcome
	}

	log.Infof("Deposit %d sent: %s", index, txHash)

	outcome.TxHash = txHash
	outcome.Status = StatusSuccess

	return outcome
}

// send signs and submits one deposit transaction. It does not wait for the
// transaction to be mined.
func (b *Broadcaster) send(ctx context.Context, client rpcClient, parsed *ParsedRecord) (string, error) {
	data, err := b.contract.Pack("deposit",
		parsed.PBData.PublicKey,
		parsed.PBData.WithdrawalCredentials,
		parsed.PBData.Signature,
		parsed.DataRoot,
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to pack deposit call")
	}

	nonce, err := client.PendingNonceAt(ctx, b.sender)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch pending nonce")
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch gas price")
	}

	value := new(big.Int).Mul(big.NewInt(32), big.NewInt(ethparams.Ether))

	tx := ethtypes.NewTransaction(nonce, b.DepositContract, value, depositGasLimit, gasPrice, data)

	signedTx, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(new(big.Int).SetUint64(b.ChainID)), b.privateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign transaction")
	}

	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return "", errors.Wrap(err, "failed to send transaction")
	}

	return signedTx.Hash().Hex(), nil
}

func (b *Broadcaster) confirm(prompt string) bool {
	if b.Confirm != nil {
		return b.Confirm(prompt)
	}

	fmt.Printf("%s [y/N]: ", prompt)

	reader := bufio.NewReader(os.Stdin)

	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes"
}

func (b *Broadcaster) sendDelay() time.Duration {
	if b.Delay >= 0 {
		return b.Delay
	}

	return interSendDelay
}
