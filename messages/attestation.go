package messages

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type TransactionType string

const (
	TxCreateGrant  TransactionType = "TxCreateGrant"
	TxApplyProgram TransactionType = "TxApplyProgram"
	TxUpdateGrant  TransactionType = "TxUpdateGrant"
)

// ------------------------------------------------------------------------------------------------------------------- //
// DRAFT

/*
Everything the submitter assembles from a finished wizard session before any attestation exists.
Existing is set when an already indexed grant is being edited, the build then only
produces a details update and the new milestones, all referencing Existing.
*/
type GrantDraft struct {
	TxType      TransactionType
	Attester    common.Address
	ProjectID   string
	CommunityID string
	ProgramID   string
	Recipient   common.Address
	Existing    common.Hash
	Details     GrantDetails
	Milestones  []MilestoneDetails
}

type GrantData struct {
	ProjectID   string `json:"projectId"`
	CommunityID string `json:"communityId"`
	ProgramID   string `json:"programId,omitempty"`
}

type GrantDetails struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Amount      string          `json:"amount,omitempty"`
	ProposalURL string          `json:"proposalURL,omitempty"`
	StartDate   *time.Time      `json:"startDate,omitempty"`
	Tracks      []TrackAnswer   `json:"tracks,omitempty"`
	Questions   []AnswerPayload `json:"questions,omitempty"`
}

func (details *GrantDetails) TrackIDs() []string {
	var ids []string
	for _, track := range details.Tracks {
		ids = append(ids, track.TrackID)
	}
	return ids
}

type TrackAnswer struct {
	TrackID       string `json:"trackId"`
	Justification string `json:"justification,omitempty"`
}

// Answer holds hex ciphertext when Encrypted is set.
type AnswerPayload struct {
	QuestionID string `json:"questionId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Encrypted  bool   `json:"encrypted,omitempty"`
}

type MilestoneDetails struct {
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	CompletionNote string    `json:"completionNote,omitempty"`
	DueAt          time.Time `json:"dueAt"`
}

// ------------------------------------------------------------------------------------------------------------------- //
// ATTESTATION

type Attestation struct {
	UID       common.Hash     `json:"uid"`
	Schema    common.Hash     `json:"schema"`
	Recipient common.Address  `json:"recipient"`
	RefUID    common.Hash     `json:"refUid"`
	Data      json.RawMessage `json:"data"`
}

/*
The attestations of one submission, signed and broadcast together as a single transaction.
Grant is nil for TxUpdateGrant.
*/
type Bundle struct {
	TxType     TransactionType `json:"txType"`
	NetworkID  uint64          `json:"networkId"`
	ProjectID  string          `json:"projectId"`
	Attester   common.Address  `json:"attester"`
	Time       int64           `json:"time"`
	Grant      *Attestation    `json:"grant,omitempty"`
	Details    *Attestation    `json:"details"`
	Milestones []*Attestation  `json:"milestones,omitempty"`
}

func (bundle *Bundle) Encode() ([]byte, error) {
	return json.Marshal(bundle)
}

// TargetUID is the record whose appearance on the indexer confirms the bundle.
func (bundle *Bundle) TargetUID() common.Hash {
	if bundle.Grant != nil {
		return bundle.Grant.UID
	}
	if bundle.Details != nil {
		return bundle.Details.UID
	}
	return common.Hash{}
}

func (bundle *Bundle) UIDs() []common.Hash {
	var uids []common.Hash
	if bundle.Grant != nil {
		uids = append(uids, bundle.Grant.UID)
	}
	if bundle.Details != nil {
		uids = append(uids, bundle.Details.UID)
	}
	for _, milestone := range bundle.Milestones {
		uids = append(uids, milestone.UID)
	}
	return uids
}

type SignedTransaction struct {
	Bundle    *Bundle       `json:"bundle"`
	Signature hexutil.Bytes `json:"signature"`
}

type Receipt struct {
	TxHash    common.Hash   `json:"txHash"`
	NetworkID uint64        `json:"networkId"`
	TargetUID common.Hash   `json:"targetUid"`
	UIDs      []common.Hash `json:"uids"`
}

type TrackAssignment struct {
	ProgramID string   `json:"programId"`
	TrackIDs  []string `json:"trackIds"`
}

type Notification struct {
	TxHash    common.Hash `json:"txHash"`
	NetworkID uint64      `json:"networkId"`
}
