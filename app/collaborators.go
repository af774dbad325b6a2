package app

import (
	"context"

	"gapnode/messages"

	"github.com/ethereum/go-ethereum/common"
)

// Wallet is the signing client. SignAndSubmit calls onSigned once the user has signed and
// before the transaction is broadcast.
type Wallet interface {
	Address() common.Address
	ActiveNetwork(ctx context.Context) (uint64, error)
	SwitchNetwork(ctx context.Context, networkID uint64) error
	SignAndSubmit(ctx context.Context, bundle *messages.Bundle, onSigned func()) (*messages.Receipt, error)
}

// Builder constructs the grant, details and milestone attestations for one network.
type Builder interface {
	NetworkID() uint64
	Build(draft *messages.GrantDraft) (*messages.Bundle, error)
}

type BuilderFactory interface {
	ForNetwork(networkID uint64) (Builder, error)
}

// Indexer is the read side. NotifyTransaction is a hint only, callers ignore its failure.
type Indexer interface {
	FetchProjectRecords(ctx context.Context, projectID string) (*messages.RecordSet, error)
	NotifyTransaction(ctx context.Context, txHash common.Hash, networkID uint64) error
}

type Catalog interface {
	Communities(ctx context.Context) ([]messages.Community, error)
	Programs(ctx context.Context, communityID string) ([]messages.Program, error)
}

type Reporter interface {
	Report(message string, err error, context map[string]interface{})
}

type TrackAssigner interface {
	AssignTracks(ctx context.Context, projectID string, trackIDs []string, programID string) error
}
