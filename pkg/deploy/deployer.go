// Package deploy sequences a contract deployment: state-init construction,
// address derivation, message signing and submission, and confirmation.
package deploy

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"go.uber.org/zap"

	"github.com/tonfoundry/tondeploy/pkg/config"
)

const confirmPollDelay = time.Second

// Backend is the slice of the TON API the deployer needs. *ton.APIClient
// satisfies it; tests substitute a stub.
type Backend interface {
	CurrentMasterchainInfo(ctx context.Context) (*ton.BlockIDExt, error)
	GetAccount(ctx context.Context, block *ton.BlockIDExt, addr *address.Address) (*tlb.Account, error)
	SendExternalMessage(ctx context.Context, msg *tlb.ExternalMessage) error
}

// Deployer performs one deployment per call. All knobs that used to be
// process-wide constants (workchain, timeout) are explicit fields so runs
// are isolated.
type Deployer struct {
	backend   Backend
	wallet    *wallet.Wallet
	lggr      *zap.SugaredLogger
	workchain int8
	timeout   time.Duration
	amount    tlb.Coins
	onSent    func(messageID string)
}

type Option func(*Deployer)

// WithWorkchain selects the target workchain for address derivation.
func WithWorkchain(wc int8) Option {
	return func(d *Deployer) { d.workchain = wc }
}

// WithTimeout bounds the post-submission confirmation wait.
func WithTimeout(t time.Duration) Option {
	return func(d *Deployer) { d.timeout = t }
}

// WithWallet enables wallet-funded deployments: the deploy message is sent
// as an internal message from the given wallet instead of a signed external
// message.
func WithWallet(w *wallet.Wallet, amount tlb.Coins) Option {
	return func(d *Deployer) {
		d.wallet = w
		d.amount = amount
	}
}

// WithLogger attaches a diagnostic logger.
func WithLogger(lggr *zap.Logger) Option {
	return func(d *Deployer) { d.lggr = lggr.Sugar() }
}

// OnSent registers a callback fired at most once, with the message id, after
// the deployment message is encoded and before the result is returned.
func OnSent(fn func(messageID string)) Option {
	return func(d *Deployer) { d.onSent = fn }
}

func New(backend Backend, opts ...Option) *Deployer {
	d := &Deployer{
		backend:   backend,
		lggr:      zap.NewNop().Sugar(),
		workchain: config.DefaultWorkchain,
		timeout:   config.DefaultProcessingTimeout,
		amount:    tlb.MustFromTON("1"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Result reports a finished deployment.
type Result struct {
	Address   string
	MessageID string
}

// Address derives the deterministic contract address for the inputs without
// touching the network. The same state init is used verbatim for the deploy
// message, so the derived address and the deployment target cannot diverge.
func (d *Deployer) Address(in *Inputs) (*address.Address, *tlb.StateInit, error) {
	data, err := in.ABI.DataCell(in.Signer.PublicKey())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cannot build init data: %v", ErrClient, err)
	}
	stateInit := &tlb.StateInit{Code: in.Code, Data: data}
	stateCell, err := tlb.ToCell(stateInit)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cannot generate address: %v", ErrClient, err)
	}
	return address.NewAddress(0, byte(d.workchain), stateCell.Hash()), stateInit, nil
}

// Deploy runs the full pipeline and returns the deployed address. Exactly one
// deployment message is constructed and submitted per call.
func (d *Deployer) Deploy(ctx context.Context, in *Inputs) (*Result, error) {
	addr, stateInit, err := d.Address(in)
	if err != nil {
		return nil, err
	}
	d.lggr.Debugw("derived contract address", "address", addr.String(), "workchain", d.workchain)

	body, err := d.constructorBody(in)
	if err != nil {
		return nil, err
	}

	if d.wallet != nil {
		return d.deployViaWallet(ctx, in, addr, stateInit, body)
	}
	return d.deployExternal(ctx, in, addr, stateInit, body)
}

// constructorBody encodes the constructor call. A contract without a
// declared constructor deploys with an empty body and tolerates no
// arguments.
func (d *Deployer) constructorBody(in *Inputs) (*cell.Cell, error) {
	constructor, ok := in.ABI.Constructor()
	if !ok {
		if len(in.Params) > 0 {
			return nil, fmt.Errorf("%w: ABI declares no constructor but parameters were given", ErrConfig)
		}
		return cell.BeginCell().EndCell(), nil
	}
	body, err := constructor.EncodeBody(in.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return body, nil
}

func (d *Deployer) deployExternal(ctx context.Context, in *Inputs, addr *address.Address, stateInit *tlb.StateInit, body *cell.Cell) (*Result, error) {
	signed, err := signBody(in, body)
	if err != nil {
		return nil, err
	}

	ext := &tlb.ExternalMessage{
		DstAddr:   addr,
		StateInit: stateInit,
		Body:      signed,
	}
	extCell, err := tlb.ToCell(ext)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot encode deploy message: %v", ErrClient, err)
	}
	messageID := hex.EncodeToString(extCell.Hash())
	if d.onSent != nil {
		d.onSent(messageID)
	}

	d.lggr.Debugw("submitting external deploy message", "address", addr.String(), "messageID", messageID)
	if err := d.backend.SendExternalMessage(ctx, ext); err != nil {
		return nil, fmt.Errorf("%w: failed to send deploy message: %v", ErrClient, err)
	}

	if err := d.waitDeployed(ctx, addr); err != nil {
		return nil, err
	}
	return &Result{Address: addr.String(), MessageID: messageID}, nil
}

// signBody prefixes the body with a 512-bit ed25519 signature over its hash
// when a signing key is available; unsigned deployments send the bare body.
func signBody(in *Inputs, body *cell.Cell) (*cell.Cell, error) {
	if in.Signer.PublicKey() == nil {
		return body, nil
	}
	sig, err := in.Signer.Sign(body.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sign deploy message: %v", ErrClient, err)
	}
	b := cell.BeginCell()
	if err := b.StoreSlice(sig, 512); err != nil {
		return nil, fmt.Errorf("%w: failed to store signature: %v", ErrClient, err)
	}
	if err := b.StoreBuilder(body.ToBuilder()); err != nil {
		return nil, fmt.Errorf("%w: failed to store signed body: %v", ErrClient, err)
	}
	return b.EndCell(), nil
}

func (d *Deployer) deployViaWallet(ctx context.Context, in *Inputs, addr *address.Address, stateInit *tlb.StateInit, body *cell.Cell) (*Result, error) {
	// The wallet SDK derives its destination on workchain 0, so any other
	// target would send funds to an address we never deploy to.
	if d.workchain != 0 {
		return nil, fmt.Errorf("%w: wallet-funded deployments support only workchain 0, got %d", ErrConfig, d.workchain)
	}

	deployedAddr, tx, block, err := d.wallet.DeployContractWaitTransaction(ctx, d.amount, body, stateInit.Code, stateInit.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: deployment failed: %v", ErrClient, err)
	}
	if deployedAddr.String() != addr.String() {
		return nil, fmt.Errorf("%w: wallet deployed to %s but derived address is %s", ErrClient, deployedAddr.String(), addr.String())
	}
	if code, ok := ComputeExitCode(tx); ok && !code.IsSuccessfulDeployment() {
		return nil, fmt.Errorf("%w: deployment transaction failed: %s", ErrClient, code.Describe())
	}
	messageID := hex.EncodeToString(tx.Hash)
	if d.onSent != nil {
		d.onSent(messageID)
	}
	d.lggr.Debugw("wallet deploy confirmed", "address", deployedAddr.String(), "block", block.SeqNo)
	return &Result{Address: deployedAddr.String(), MessageID: messageID}, nil
}

// waitDeployed polls the account state until it becomes active or the
// processing timeout elapses. The liteserver owns retries of the submission
// itself; this only observes the outcome.
func (d *Deployer) waitDeployed(ctx context.Context, addr *address.Address) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	attempts := uint(d.timeout / confirmPollDelay)
	if attempts == 0 {
		attempts = 1
	}
	err := retry.Do(func() error {
		block, err := d.backend.CurrentMasterchainInfo(ctx)
		if err != nil {
			return err
		}
		acc, err := d.backend.GetAccount(ctx, block, addr)
		if err != nil {
			return err
		}
		if !acc.IsActive {
			return fmt.Errorf("account %s is not active yet", addr.String())
		}
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(confirmPollDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("%w: deployment not confirmed: %v", ErrClient, err)
	}
	return nil
}
