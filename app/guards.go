package app

import (
	"context"
	"fmt"
	"strings"

	"gapnode/messages"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tendermint/tendermint/libs/log"
)

// ------------------------------------------------------------------------------------------------------------------- //
// NETWORK GUARD

type NetworkGuard struct {
	wallet   Wallet
	builders BuilderFactory
	logger   log.Logger
}

func NewNetworkGuard(wallet Wallet, builders BuilderFactory, logger log.Logger) *NetworkGuard {
	return &NetworkGuard{wallet: wallet, builders: builders, logger: logger.With("module", "network")}
}

// EnsureNetwork puts the wallet on required, switching only when it is elsewhere, and returns
// a builder bound to it. Every failure wraps ErrNetworkMismatch.
func (guard *NetworkGuard) EnsureNetwork(ctx context.Context, required uint64) (Builder, error) {
	active, err := guard.wallet.ActiveNetwork(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: reading active network: %w", ErrNetworkMismatch, err)
	}
	if active != required {
		if !messages.IsSupportedNetwork(required) {
			return nil, fmt.Errorf("%w: network %d is not supported", ErrNetworkMismatch, required)
		}
		guard.logger.Info("Switching network", "from", messages.NetworkName(active), "to", messages.NetworkName(required))
		if err := guard.wallet.SwitchNetwork(ctx, required); err != nil {
			return nil, fmt.Errorf("%w: switching from %d to %d: %w", ErrNetworkMismatch, active, required, err)
		}
	}
	builder, err := guard.builders.ForNetwork(required)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkMismatch, err)
	}
	return builder, nil
}

// ------------------------------------------------------------------------------------------------------------------- //
// DUPLICATE GUARD

// Candidate is the grant about to be submitted. Exclude is the grant being edited, it never
// counts as a duplicate of itself.
type Candidate struct {
	ProgramID   string
	CommunityID string
	Title       string
	Exclude     common.Hash
}

type Duplicate struct {
	Found bool
	Match *messages.GrantEntry
}

type DuplicateGuard struct {
	indexer Indexer
}

func NewDuplicateGuard(indexer Indexer) *DuplicateGuard {
	return &DuplicateGuard{indexer: indexer}
}

// CheckDuplicate reads the project's current records and never writes anything.
func (guard *DuplicateGuard) CheckDuplicate(ctx context.Context, projectID string, candidate Candidate) (Duplicate, error) {
	records, err := guard.indexer.FetchProjectRecords(ctx, projectID)
	if err != nil {
		return Duplicate{}, fmt.Errorf("fetching records of project %s: %w", projectID, err)
	}
	return FindDuplicate(records, candidate), nil
}

/*
FindDuplicate applies the two rules in order. With a program id only the base program ids are
compared, the network suffix is ignored. Without one, a grant is a duplicate only when both its
community and its trimmed, case-insensitive title match.
*/
func FindDuplicate(records *messages.RecordSet, candidate Candidate) Duplicate {
	if records == nil {
		return Duplicate{}
	}
	programID := strings.TrimSpace(candidate.ProgramID)
	title := strings.TrimSpace(candidate.Title)
	for i := range records.Grants {
		grant := &records.Grants[i]
		if grant.UID == candidate.Exclude && candidate.Exclude != (common.Hash{}) {
			continue
		}
		var found bool
		if programID != "" {
			found = grant.ProgramID != "" && BaseProgramID(grant.ProgramID) == BaseProgramID(programID)
		} else {
			found = grant.CommunityID == candidate.CommunityID &&
				strings.EqualFold(strings.TrimSpace(grant.Details.Title), title)
		}
		if found {
			return Duplicate{Found: true, Match: grant}
		}
	}
	return Duplicate{}
}

// BaseProgramID strips a trailing "_<network id>".
func BaseProgramID(programID string) string {
	programID = strings.TrimSpace(programID)
	index := strings.LastIndex(programID, "_")
	if index <= 0 || index == len(programID)-1 {
		return programID
	}
	for _, c := range programID[index+1:] {
		if c < '0' || c > '9' {
			return programID
		}
	}
	return programID[:index]
}
