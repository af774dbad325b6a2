package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gapnode/crypto"
	"gapnode/messages"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tendermint/tendermint/config"
	"github.com/tendermint/tendermint/node"
	dbm "github.com/tendermint/tm-db"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrKnownTransaction = errors.New("transaction already received")
)

const (
	prefixCommunity = "community/"
	prefixGrant     = "grant/"
	prefixPending   = "pending/"
	prefixIndexed   = "indexed/"
	prefixUID       = "uid/"
	prefixTracks    = "tracks/"
)

// pending is a received transaction the read side has not caught up with yet.
type pending struct {
	TxHash     common.Hash                `json:"txHash"`
	Tx         messages.SignedTransaction `json:"tx"`
	ReceivedAt time.Time                  `json:"receivedAt"`
	Notified   bool                       `json:"notified"`
}

// ------------------------------------------------------------------------------------------------------------------- //
// STORE

/*
Store keeps the catalog, the indexed grants and the received but not yet indexed transactions.
Received transactions move to the read side lazily, on the first read after they are ready:
once delay has passed since they were received, or as soon as they were notified.
*/
type Store struct {
	mu    sync.Mutex
	db    dbm.DB
	delay time.Duration
	now   func() time.Time
}

func NewStore(db dbm.DB, delay time.Duration) *Store {
	return &Store{db: db, delay: delay, now: time.Now}
}

// OpenStore opens the store database of a node home, the same way a tendermint node opens its own.
func OpenStore(home, backend, dir string, delay time.Duration) (*Store, error) {
	configuration := config.DefaultConfig()
	configuration.SetRoot(home)
	configuration.DBBackend = backend
	configuration.DBPath = dir
	db, err := node.DefaultDBProvider(&node.DBContext{ID: "indexer", Config: configuration})
	if err != nil {
		return nil, err
	}
	return NewStore(db, delay), nil
}

func (store *Store) Close() error {
	return store.db.Close()
}

// ------------------------------------------------------------------------------------------------------------------- //
// CATALOG

func (store *Store) PutCommunity(community messages.Community) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for i := range community.Programs {
		community.Programs[i].CommunityID = community.ID
	}
	return store.put(prefixCommunity+community.ID, community)
}

func (store *Store) Communities() ([]messages.Community, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var communities []messages.Community
	err := store.scan(prefixCommunity, func(value []byte) error {
		var community messages.Community
		if err := json.Unmarshal(value, &community); err != nil {
			return err
		}
		communities = append(communities, community)
		return nil
	})
	return communities, err
}

func (store *Store) Community(id string) (messages.Community, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var community messages.Community
	err := store.get(prefixCommunity+id, &community)
	return community, err
}

// ------------------------------------------------------------------------------------------------------------------- //
// TRANSACTIONS

// Receive queues a verified transaction for indexing and returns its receipt.
func (store *Store) Receive(tx *messages.SignedTransaction) (*messages.Receipt, error) {
	encoded, err := tx.Bundle.Encode()
	if err != nil {
		return nil, err
	}
	txHash := crypto.Hash(append(encoded, tx.Signature...))

	store.mu.Lock()
	defer store.mu.Unlock()
	for _, prefix := range []string{prefixPending, prefixIndexed} {
		if known, err := store.db.Has([]byte(prefix + txHash.Hex())); err != nil {
			return nil, err
		} else if known {
			return nil, ErrKnownTransaction
		}
	}
	if tx.Bundle.TxType == messages.TxUpdateGrant {
		var projectID string
		if err := store.get(prefixUID+tx.Bundle.Details.RefUID.Hex(), &projectID); err != nil || projectID != tx.Bundle.ProjectID {
			return nil, fmt.Errorf("grant %s of project %s: %w", tx.Bundle.Details.RefUID.Hex(), tx.Bundle.ProjectID, ErrNotFound)
		}
	}
	err = store.put(prefixPending+txHash.Hex(), pending{TxHash: txHash, Tx: *tx, ReceivedAt: store.now()})
	if err != nil {
		return nil, err
	}
	return &messages.Receipt{
		TxHash:    txHash,
		NetworkID: tx.Bundle.NetworkID,
		TargetUID: tx.Bundle.TargetUID(),
		UIDs:      tx.Bundle.UIDs(),
	}, nil
}

// Notify makes a received transaction visible on the next read. Indexed transactions are ignored.
func (store *Store) Notify(txHash common.Hash) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	var tx pending
	if err := store.get(prefixPending+txHash.Hex(), &tx); errors.Is(err, ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}
	tx.Notified = true
	return store.put(prefixPending+txHash.Hex(), tx)
}

// Pending counts the received transactions that are not indexed yet.
func (store *Store) Pending() (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	count := 0
	err := store.scan(prefixPending, func([]byte) error {
		count++
		return nil
	})
	return count, err
}

// ------------------------------------------------------------------------------------------------------------------- //
// READ SIDE

func (store *Store) Records(projectID string) (*messages.RecordSet, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if err := store.catchUp(); err != nil {
		return nil, err
	}
	records := &messages.RecordSet{ProjectID: projectID, Grants: []messages.GrantEntry{}}
	err := store.scan(prefixGrant+projectID+"/", func(value []byte) error {
		var entry messages.GrantEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return err
		}
		records.Grants = append(records.Grants, entry)
		return nil
	})
	sort.Slice(records.Grants, func(i, j int) bool {
		return records.Grants[i].CreatedAt.Before(records.Grants[j].CreatedAt)
	})
	return records, err
}

// AssignTracks records the tracks of a project in a program and tags the project's grants in it.
func (store *Store) AssignTracks(projectID string, assignment messages.TrackAssignment) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	var entries []messages.GrantEntry
	err := store.scan(prefixGrant+projectID+"/", func(value []byte) error {
		var entry messages.GrantEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return err
		}
		if entry.ProgramID == assignment.ProgramID {
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := store.put(prefixTracks+projectID+"/"+assignment.ProgramID, assignment.TrackIDs); err != nil {
		return err
	}
	for _, entry := range entries {
		entry.Tracks = assignment.TrackIDs
		if err := store.put(grantKey(projectID, entry.UID), entry); err != nil {
			return err
		}
	}
	return nil
}

func (store *Store) Tracks(projectID, programID string) ([]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var trackIDs []string
	err := store.get(prefixTracks+projectID+"/"+programID, &trackIDs)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return trackIDs, err
}

func (store *Store) catchUp() error {
	var ready []pending
	now := store.now()
	err := store.scan(prefixPending, func(value []byte) error {
		var tx pending
		if err := json.Unmarshal(value, &tx); err != nil {
			return err
		}
		if tx.Notified || !now.Before(tx.ReceivedAt.Add(store.delay)) {
			ready = append(ready, tx)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].ReceivedAt.Before(ready[j].ReceivedAt) })
	for _, tx := range ready {
		if err := store.index(tx); err != nil {
			return fmt.Errorf("indexing %s: %w", tx.TxHash.Hex(), err)
		}
	}
	return nil
}

func (store *Store) index(tx pending) error {
	bundle := tx.Tx.Bundle
	var details messages.GrantDetails
	if err := json.Unmarshal(bundle.Details.Data, &details); err != nil {
		return err
	}
	var entry messages.GrantEntry
	if bundle.Grant != nil {
		var data messages.GrantData
		if err := json.Unmarshal(bundle.Grant.Data, &data); err != nil {
			return err
		}
		entry = messages.GrantEntry{
			UID:         bundle.Grant.UID,
			ProjectID:   bundle.ProjectID,
			CommunityID: data.CommunityID,
			ProgramID:   data.ProgramID,
			NetworkID:   bundle.NetworkID,
			Recipient:   bundle.Grant.Recipient,
			Tracks:      details.TrackIDs(),
			CreatedAt:   time.Unix(bundle.Time, 0).UTC(),
		}
	} else if err := store.get(grantKey(bundle.ProjectID, bundle.Details.RefUID), &entry); err != nil {
		return err
	}
	entry.DetailsUID = bundle.Details.UID
	entry.Details = details
	for _, milestone := range bundle.Milestones {
		var milestoneDetails messages.MilestoneDetails
		if err := json.Unmarshal(milestone.Data, &milestoneDetails); err != nil {
			return err
		}
		entry.Milestones = append(entry.Milestones, messages.MilestoneEntry{UID: milestone.UID, Details: milestoneDetails})
	}

	batch := store.db.NewBatch()
	defer batch.Close()
	encoded, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	projectID, _ := json.Marshal(entry.ProjectID)
	batch.Set([]byte(grantKey(entry.ProjectID, entry.UID)), encoded)
	batch.Set([]byte(prefixUID+entry.UID.Hex()), projectID)
	batch.Delete([]byte(prefixPending + tx.TxHash.Hex()))
	batch.Set([]byte(prefixIndexed+tx.TxHash.Hex()), projectID)
	return batch.Write()
}

// ------------------------------------------------------------------------------------------------------------------- //
// KEYS AND VALUES

func grantKey(projectID string, uid common.Hash) string {
	return prefixGrant + projectID + "/" + uid.Hex()
}

func (store *Store) put(key string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return store.db.Set([]byte(key), encoded)
}

func (store *Store) get(key string, value interface{}) error {
	encoded, err := store.db.Get([]byte(key))
	if err != nil {
		return err
	}
	if encoded == nil {
		return ErrNotFound
	}
	return json.Unmarshal(encoded, value)
}

// scan reads every value under prefix. The iterator is closed before scan returns, so callers
// may write once it is done but never from fn.
func (store *Store) scan(prefix string, fn func(value []byte) error) error {
	iterator, err := store.db.Iterator([]byte(prefix), prefixEnd([]byte(prefix)))
	if err != nil {
		return err
	}
	defer iterator.Close()
	for ; iterator.Valid(); iterator.Next() {
		if err := fn(iterator.Value()); err != nil {
			return err
		}
	}
	return nil
}

func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
