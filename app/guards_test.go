package app

import (
	"context"
	"errors"
	"testing"

	"gapnode/messages"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func mockRecords(grants ...messages.GrantEntry) *messages.RecordSet {
	return &messages.RecordSet{ProjectID: "project-1", Grants: grants}
}

func TestBaseProgramID(t *testing.T) {
	assert.Equal(t, "P1", BaseProgramID("P1_10"))
	assert.Equal(t, "P1", BaseProgramID("P1_42"))
	assert.Equal(t, "my_program", BaseProgramID("my_program_11155111"))
	assert.Equal(t, "my_program", BaseProgramID("my_program"))
	assert.Equal(t, "P1_", BaseProgramID("P1_"))
	assert.Equal(t, "P1", BaseProgramID("P1"))
}

func TestFindDuplicateByProgram(t *testing.T) {
	records := mockRecords(messages.GrantEntry{UID: common.HexToHash("0x1"), CommunityID: "C9", ProgramID: "P1_10"})

	duplicate := FindDuplicate(records, Candidate{ProgramID: "P1_42", CommunityID: "C1", Title: "Other"})
	require.True(t, duplicate.Found)
	assert.Equal(t, common.HexToHash("0x1"), duplicate.Match.UID)

	duplicate = FindDuplicate(records, Candidate{ProgramID: "P2_10", CommunityID: "C9"})
	assert.False(t, duplicate.Found)
}

func TestFindDuplicateByTitle(t *testing.T) {
	records := mockRecords(messages.GrantEntry{
		UID:         common.HexToHash("0x1"),
		CommunityID: "C1",
		Details:     messages.GrantDetails{Title: "Ecosystem Fund"},
	})

	assert.True(t, FindDuplicate(records, Candidate{CommunityID: "C1", Title: "  ecosystem fund "}).Found)
	assert.False(t, FindDuplicate(records, Candidate{CommunityID: "C2", Title: "ecosystem fund"}).Found)
	assert.False(t, FindDuplicate(records, Candidate{CommunityID: "C1", Title: "ecosystem funds"}).Found)
}

func TestFindDuplicateProgramRuleDoesNotFallBackToTitle(t *testing.T) {
	records := mockRecords(messages.GrantEntry{CommunityID: "C1", Details: messages.GrantDetails{Title: "Ecosystem Fund"}})
	assert.False(t, FindDuplicate(records, Candidate{ProgramID: "P1_10", CommunityID: "C1", Title: "Ecosystem Fund"}).Found)
}

func TestFindDuplicateExcludesEditedGrant(t *testing.T) {
	uid := common.HexToHash("0x1")
	records := mockRecords(messages.GrantEntry{UID: uid, CommunityID: "C1", ProgramID: "P1_10"})
	assert.False(t, FindDuplicate(records, Candidate{ProgramID: "P1_10", Exclude: uid}).Found)
	assert.False(t, FindDuplicate(nil, Candidate{ProgramID: "P1_10"}).Found)
}

func TestCheckDuplicateIsReadOnly(t *testing.T) {
	indexer := &mockIndexer{records: *mockRecords(messages.GrantEntry{ProgramID: "P1_10"})}
	guard := NewDuplicateGuard(indexer)
	for i := 0; i < 2; i++ {
		duplicate, err := guard.CheckDuplicate(context.Background(), "project-1", Candidate{ProgramID: "P1_42"})
		require.NoError(t, err)
		assert.True(t, duplicate.Found)
	}
	assert.Len(t, indexer.records.Grants, 1)

	indexer.fetchErr = errors.New("indexer down")
	_, err := guard.CheckDuplicate(context.Background(), "project-1", Candidate{ProgramID: "P1_42"})
	assert.Error(t, err)
}

func TestEnsureNetworkWithoutSwitch(t *testing.T) {
	wallet := &mockWallet{active: 10}
	guard := NewNetworkGuard(wallet, &mockBuilders{}, log.NewNopLogger())

	builder, err := guard.EnsureNetwork(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), builder.NetworkID())
	assert.Empty(t, wallet.switches)
}

func TestEnsureNetworkSwitches(t *testing.T) {
	wallet := &mockWallet{active: 10}
	guard := NewNetworkGuard(wallet, &mockBuilders{}, log.NewNopLogger())

	builder, err := guard.EnsureNetwork(context.Background(), 42220)
	require.NoError(t, err)
	assert.Equal(t, uint64(42220), builder.NetworkID())
	assert.Equal(t, []uint64{42220}, wallet.switches)
}

func TestEnsureNetworkFailures(t *testing.T) {
	wallet := &mockWallet{active: 10, switchErr: errors.New("user rejected the switch")}
	guard := NewNetworkGuard(wallet, &mockBuilders{}, log.NewNopLogger())

	_, err := guard.EnsureNetwork(context.Background(), 42220)
	assert.True(t, errors.Is(err, ErrNetworkMismatch))

	_, err = guard.EnsureNetwork(context.Background(), 999999)
	assert.True(t, errors.Is(err, ErrNetworkMismatch))
	assert.Equal(t, []uint64{42220}, wallet.switches, "unknown network must not be requested")
}
