package app

import (
	"context"
	"errors"
	"sync"

	"gapnode/messages"

	"github.com/ethereum/go-ethereum/common"
)

var (
	mockCaller    = Caller{Address: common.HexToAddress("0x00000000000000000000000000000000000000c0")}
	mockCommunity = messages.Community{
		ID:        "C1",
		Name:      "Optimism",
		NetworkID: 10,
		Programs: []messages.Program{{
			ID:          "P1_10",
			CommunityID: "C1",
			Name:        "Builders Fund",
			Tracks:      []messages.Track{{ID: "T1", Name: "Tooling"}, {ID: "T2", Name: "Education"}},
			Questions:   []messages.Question{{ID: "q1", Label: "Team size"}},
		}},
	}
)

// ------------------------------------------------------------------------------------------------------------------- //
// INDEXER

// mockIndexer reveals every pending grant after lag more fetches.
type mockIndexer struct {
	mu        sync.Mutex
	records   messages.RecordSet
	pending   []messages.GrantEntry
	lag       int
	fetches   int
	notified  []common.Hash
	fetchErr  error
	onFetch   func(fetch int)
	sinceSent int
}

func (indexer *mockIndexer) FetchProjectRecords(ctx context.Context, projectID string) (*messages.RecordSet, error) {
	indexer.mu.Lock()
	indexer.fetches++
	fetch := indexer.fetches
	onFetch := indexer.onFetch
	if len(indexer.pending) > 0 {
		indexer.sinceSent++
		if indexer.sinceSent >= indexer.lag {
			indexer.records.Grants = append(indexer.records.Grants, indexer.pending...)
			indexer.pending = nil
		}
	}
	records := indexer.records
	records.Grants = append([]messages.GrantEntry(nil), indexer.records.Grants...)
	err := indexer.fetchErr
	indexer.mu.Unlock()

	if onFetch != nil {
		onFetch(fetch)
	}
	if err != nil {
		return nil, err
	}
	records.ProjectID = projectID
	return &records, nil
}

func (indexer *mockIndexer) NotifyTransaction(ctx context.Context, txHash common.Hash, networkID uint64) error {
	indexer.mu.Lock()
	defer indexer.mu.Unlock()
	indexer.notified = append(indexer.notified, txHash)
	return errors.New("notify endpoint down")
}

func (indexer *mockIndexer) add(bundle *messages.Bundle) {
	indexer.mu.Lock()
	defer indexer.mu.Unlock()
	indexer.pending = append(indexer.pending, messages.GrantEntry{
		UID:        bundle.TargetUID(),
		ProjectID:  bundle.ProjectID,
		DetailsUID: bundle.Details.UID,
	})
	indexer.sinceSent = 0
}

func (indexer *mockIndexer) fetchCount() int {
	indexer.mu.Lock()
	defer indexer.mu.Unlock()
	return indexer.fetches
}

// ------------------------------------------------------------------------------------------------------------------- //
// WALLET

type mockWallet struct {
	mu        sync.Mutex
	active    uint64
	switches  []uint64
	switchErr error
	signErr   error
	signed    []*messages.Bundle
	indexer   *mockIndexer
	block     chan struct{}
}

func (wallet *mockWallet) Address() common.Address { return mockCaller.Address }

func (wallet *mockWallet) ActiveNetwork(ctx context.Context) (uint64, error) {
	wallet.mu.Lock()
	defer wallet.mu.Unlock()
	return wallet.active, nil
}

func (wallet *mockWallet) SwitchNetwork(ctx context.Context, networkID uint64) error {
	wallet.mu.Lock()
	defer wallet.mu.Unlock()
	wallet.switches = append(wallet.switches, networkID)
	if wallet.switchErr != nil {
		return wallet.switchErr
	}
	wallet.active = networkID
	return nil
}

func (wallet *mockWallet) SignAndSubmit(ctx context.Context, bundle *messages.Bundle, onSigned func()) (*messages.Receipt, error) {
	if wallet.block != nil {
		select {
		case <-wallet.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	wallet.mu.Lock()
	signErr := wallet.signErr
	wallet.mu.Unlock()
	if signErr != nil {
		return nil, signErr
	}
	onSigned()
	wallet.mu.Lock()
	wallet.signed = append(wallet.signed, bundle)
	wallet.mu.Unlock()
	if wallet.indexer != nil {
		wallet.indexer.add(bundle)
	}
	return &messages.Receipt{
		TxHash:    common.BytesToHash([]byte("tx")),
		NetworkID: bundle.NetworkID,
		TargetUID: bundle.TargetUID(),
		UIDs:      bundle.UIDs(),
	}, nil
}

// ------------------------------------------------------------------------------------------------------------------- //
// BUILDER

type mockBuilders struct {
	built []*messages.GrantDraft
}

func (builders *mockBuilders) ForNetwork(networkID uint64) (Builder, error) {
	if !messages.IsSupportedNetwork(networkID) {
		return nil, errors.New("no schemas for network")
	}
	return &mockBuilder{networkID: networkID, builders: builders}, nil
}

type mockBuilder struct {
	networkID uint64
	builders  *mockBuilders
}

func (builder *mockBuilder) NetworkID() uint64 { return builder.networkID }

func (builder *mockBuilder) Build(draft *messages.GrantDraft) (*messages.Bundle, error) {
	builder.builders.built = append(builder.builders.built, draft)
	bundle := &messages.Bundle{
		TxType:    draft.TxType,
		NetworkID: builder.networkID,
		ProjectID: draft.ProjectID,
		Attester:  draft.Attester,
		Details:   &messages.Attestation{UID: common.BytesToHash([]byte("details-" + draft.Details.Title))},
	}
	if draft.Existing == (common.Hash{}) {
		bundle.Grant = &messages.Attestation{UID: common.BytesToHash([]byte("grant-" + draft.Details.Title)), Recipient: draft.Recipient}
	}
	return bundle, nil
}

// ------------------------------------------------------------------------------------------------------------------- //
// REPORTER AND TRACKS

type mockReport struct {
	message string
	err     error
	context map[string]interface{}
}

type mockReporter struct {
	mu      sync.Mutex
	reports []mockReport
}

func (reporter *mockReporter) Report(message string, err error, context map[string]interface{}) {
	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	reporter.reports = append(reporter.reports, mockReport{message: message, err: err, context: context})
}

func (reporter *mockReporter) count() int {
	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	return len(reporter.reports)
}

type mockTracks struct {
	err      error
	assigned [][]string
}

func (tracks *mockTracks) AssignTracks(ctx context.Context, projectID string, trackIDs []string, programID string) error {
	tracks.assigned = append(tracks.assigned, trackIDs)
	return tracks.err
}

// ------------------------------------------------------------------------------------------------------------------- //
// FIXTURE

type fixture struct {
	indexer  *mockIndexer
	wallet   *mockWallet
	builders *mockBuilders
	reporter *mockReporter
	tracks   *mockTracks
	statuses []Status
}

func newFixture() *fixture {
	indexer := &mockIndexer{lag: 1}
	return &fixture{
		indexer:  indexer,
		wallet:   &mockWallet{active: 10, indexer: indexer},
		builders: &mockBuilders{},
		reporter: &mockReporter{},
		tracks:   &mockTracks{},
	}
}

func (fixture *fixture) deps() Dependencies {
	return Dependencies{
		Wallet:   fixture.wallet,
		Builders: fixture.builders,
		Indexer:  fixture.indexer,
		Reporter: fixture.reporter,
		Tracks:   fixture.tracks,
	}
}

func (fixture *fixture) wizard(opts ...Option) *Wizard {
	opts = append([]Option{
		WithPolling(WithPollInterval(0), WithPollAttempts(5)),
		WithStatusListener(func(status Status) { fixture.statuses = append(fixture.statuses, status) }),
	}, opts...)
	return NewWizard("project-1", fixture.deps(), opts...)
}
