package messages

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

/*
Read side view of a project as served by the indexer.
Only records the indexer has caught up with are present, a freshly broadcast
transaction is missing until indexing completes.
*/
type RecordSet struct {
	ProjectID string       `json:"projectId"`
	Grants    []GrantEntry `json:"grants"`
}

// Contains reports whether any grant, details or milestone record carries uid.
func (set *RecordSet) Contains(uid common.Hash) bool {
	if set == nil {
		return false
	}
	for i := range set.Grants {
		if set.Grants[i].Contains(uid) {
			return true
		}
	}
	return false
}

func (set *RecordSet) Grant(uid common.Hash) (*GrantEntry, bool) {
	if set == nil {
		return nil, false
	}
	for i := range set.Grants {
		if set.Grants[i].UID == uid {
			return &set.Grants[i], true
		}
	}
	return nil, false
}

type GrantEntry struct {
	UID         common.Hash      `json:"uid"`
	ProjectID   string           `json:"projectId"`
	CommunityID string           `json:"communityId"`
	ProgramID   string           `json:"programId,omitempty"`
	NetworkID   uint64           `json:"networkId"`
	Recipient   common.Address   `json:"recipient"`
	DetailsUID  common.Hash      `json:"detailsUid"`
	Details     GrantDetails     `json:"details"`
	Milestones  []MilestoneEntry `json:"milestones,omitempty"`
	Tracks      []string         `json:"tracks,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (entry *GrantEntry) Contains(uid common.Hash) bool {
	if entry.UID == uid || entry.DetailsUID == uid {
		return true
	}
	for _, milestone := range entry.Milestones {
		if milestone.UID == uid {
			return true
		}
	}
	return false
}

type MilestoneEntry struct {
	UID     common.Hash      `json:"uid"`
	Details MilestoneDetails `json:"details"`
}
