package wallet

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gapnode/app"
	"gapnode/crypto"
	"gapnode/messages"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

type mockBroadcaster struct {
	sent []*messages.SignedTransaction
}

func (broadcaster *mockBroadcaster) Broadcast(ctx context.Context, tx *messages.SignedTransaction) (*messages.Receipt, error) {
	broadcaster.sent = append(broadcaster.sent, tx)
	return &messages.Receipt{TxHash: common.HexToHash("0x1"), NetworkID: tx.Bundle.NetworkID, TargetUID: tx.Bundle.TargetUID()}, nil
}

func mockBundle(networkID uint64) *messages.Bundle {
	return &messages.Bundle{
		TxType:    messages.TxCreateGrant,
		NetworkID: networkID,
		ProjectID: "project-1",
		Grant:     &messages.Attestation{UID: common.HexToHash("0xa")},
		Details:   &messages.Attestation{UID: common.HexToHash("0xb")},
	}
}

func mockWallet(t *testing.T, confirm Confirm) (*Wallet, *mockBroadcaster) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	broadcaster := &mockBroadcaster{}
	wallet, err := New(key, 10, broadcaster, confirm, log.NewNopLogger())
	require.NoError(t, err)
	return wallet, broadcaster
}

func TestSignAndSubmit(t *testing.T) {
	wallet, broadcaster := mockWallet(t, nil)
	bundle := mockBundle(10)
	signed := false

	receipt, err := wallet.SignAndSubmit(context.Background(), bundle, func() { signed = true })
	require.NoError(t, err)
	assert.True(t, signed)
	assert.Equal(t, bundle.Grant.UID, receipt.TargetUID)
	require.Len(t, broadcaster.sent, 1)

	encoded, err := bundle.Encode()
	require.NoError(t, err)
	assert.True(t, crypto.Verify(wallet.Address(), encoded, broadcaster.sent[0].Signature))
}

func TestSignatureRejected(t *testing.T) {
	wallet, broadcaster := mockWallet(t, func(prompt string) bool { return false })
	signed := false

	_, err := wallet.SignAndSubmit(context.Background(), mockBundle(10), func() { signed = true })
	assert.True(t, errors.Is(err, app.ErrSignatureRejected))
	assert.False(t, signed)
	assert.Empty(t, broadcaster.sent)
}

func TestWrongNetwork(t *testing.T) {
	wallet, broadcaster := mockWallet(t, nil)
	_, err := wallet.SignAndSubmit(context.Background(), mockBundle(8453), nil)
	assert.True(t, errors.Is(err, ErrWrongNetwork))
	assert.Empty(t, broadcaster.sent)
}

func TestSwitchNetwork(t *testing.T) {
	var prompts []string
	approve := true
	wallet, _ := mockWallet(t, func(prompt string) bool {
		prompts = append(prompts, prompt)
		return approve
	})
	ctx := context.Background()

	require.NoError(t, wallet.SwitchNetwork(ctx, 42220))
	active, err := wallet.ActiveNetwork(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(42220), active)
	assert.Contains(t, prompts[0], "celo")

	assert.True(t, errors.Is(wallet.SwitchNetwork(ctx, 1), ErrUnsupportedNetwork))
	approve = false
	assert.Equal(t, ErrSwitchRejected, wallet.SwitchNetwork(ctx, 10))
	active, _ = wallet.ActiveNetwork(ctx)
	assert.Equal(t, uint64(42220), active)
}

func TestLoad(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyFile := filepath.Join(t.TempDir(), "wallet.key")
	require.NoError(t, crypto.SaveKey(keyFile, key))

	wallet, err := Load(keyFile, 8453, &mockBroadcaster{}, nil, log.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, crypto.Address(key), wallet.Address())

	_, err = Load(keyFile, 1, &mockBroadcaster{}, nil, log.NewNopLogger())
	assert.True(t, errors.Is(err, ErrUnsupportedNetwork))
}
