package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"

	"gapnode/app"
	"gapnode/crypto"
	"gapnode/messages"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	ErrUnsupportedNetwork = errors.New("unsupported network")
	ErrSwitchRejected     = errors.New("network switch rejected")
	ErrWrongNetwork       = errors.New("bundle built for another network")
)

// Broadcaster relays a signed transaction, the indexer client is one.
type Broadcaster interface {
	Broadcast(ctx context.Context, tx *messages.SignedTransaction) (*messages.Receipt, error)
}

// Confirm asks the key holder to approve prompt.
type Confirm func(prompt string) bool

func AlwaysConfirm(prompt string) bool { return true }

var _ app.Wallet = (*Wallet)(nil)

// ------------------------------------------------------------------------------------------------------------------- //
// WALLET

/*
Wallet is a local key wallet. It keeps an active network like a browser wallet does, and asks
for approval before switching network and before every signature.
*/
type Wallet struct {
	mu          sync.Mutex
	key         *ecdsa.PrivateKey
	address     common.Address
	active      uint64
	broadcaster Broadcaster
	confirm     Confirm
	logger      log.Logger
}

func New(key *ecdsa.PrivateKey, networkID uint64, broadcaster Broadcaster, confirm Confirm, logger log.Logger) (*Wallet, error) {
	if !messages.IsSupportedNetwork(networkID) {
		return nil, fmt.Errorf("%w %d", ErrUnsupportedNetwork, networkID)
	}
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	address := crypto.Address(key)
	return &Wallet{
		key:         key,
		address:     address,
		active:      networkID,
		broadcaster: broadcaster,
		confirm:     confirm,
		logger:      logger.With("module", "wallet", "address", address.Hex()),
	}, nil
}

// Load opens the wallet of a key file written by crypto.SaveKey.
func Load(keyFile string, networkID uint64, broadcaster Broadcaster, confirm Confirm, logger log.Logger) (*Wallet, error) {
	key, err := crypto.LoadKey(keyFile)
	if err != nil {
		return nil, fmt.Errorf("loading wallet key: %w", err)
	}
	return New(key, networkID, broadcaster, confirm, logger)
}

func (wallet *Wallet) Address() common.Address {
	return wallet.address
}

func (wallet *Wallet) ActiveNetwork(ctx context.Context) (uint64, error) {
	wallet.mu.Lock()
	defer wallet.mu.Unlock()
	return wallet.active, ctx.Err()
}

func (wallet *Wallet) SwitchNetwork(ctx context.Context, networkID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !messages.IsSupportedNetwork(networkID) {
		return fmt.Errorf("%w %d", ErrUnsupportedNetwork, networkID)
	}
	if !wallet.confirm(fmt.Sprintf("Switch wallet to %s (%d)?", messages.NetworkName(networkID), networkID)) {
		return ErrSwitchRejected
	}
	wallet.mu.Lock()
	defer wallet.mu.Unlock()
	wallet.logger.Info("Switched network", "from", wallet.active, "to", networkID)
	wallet.active = networkID
	return nil
}

/*
SignAndSubmit signs the encoded bundle with the wallet key and hands it to the broadcaster.
Declining the approval prompt returns app.ErrSignatureRejected and nothing is broadcast.
*/
func (wallet *Wallet) SignAndSubmit(ctx context.Context, bundle *messages.Bundle, onSigned func()) (*messages.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	active, _ := wallet.ActiveNetwork(ctx)
	if bundle.NetworkID != active {
		return nil, fmt.Errorf("%w: bundle %d, wallet %d", ErrWrongNetwork, bundle.NetworkID, active)
	}
	prompt := fmt.Sprintf("Sign %s for project %s with %d attestations on %s?",
		bundle.TxType, bundle.ProjectID, len(bundle.UIDs()), messages.NetworkName(bundle.NetworkID))
	if !wallet.confirm(prompt) {
		return nil, fmt.Errorf("%w: declined by %s", app.ErrSignatureRejected, wallet.address.Hex())
	}

	encoded, err := bundle.Encode()
	if err != nil {
		return nil, err
	}
	signature, err := crypto.Sign(wallet.key, encoded)
	if err != nil {
		return nil, err
	}
	if onSigned != nil {
		onSigned()
	}
	wallet.logger.Debug("Signed bundle", "tx", bundle.TxType, "target", bundle.TargetUID().Hex())
	return wallet.broadcaster.Broadcast(ctx, &messages.SignedTransaction{Bundle: bundle, Signature: signature})
}
