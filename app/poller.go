package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	DefaultPollAttempts = 1000
	DefaultPollInterval = 1500 * time.Millisecond
)

type PollTarget struct {
	ProjectID string
	UID       common.Hash
	TxHash    common.Hash
	NetworkID uint64
}

type PollResult struct {
	Attempts int
	Found    bool
}

/*
Poller waits for a broadcast record to show up on the indexer. It makes at most attempts
fetches with a fixed interval between two of them and stops at the first match. Exhausting
the budget returns ErrIndexingTimeout, a cancelled context stops it between attempts.
*/
type Poller struct {
	indexer  Indexer
	attempts int
	interval time.Duration
	logger   log.Logger
	wait     func(ctx context.Context, d time.Duration) error
}

type PollerOption func(*Poller)

func WithPollAttempts(attempts int) PollerOption {
	return func(poller *Poller) {
		if attempts > 0 {
			poller.attempts = attempts
		}
	}
}

func WithPollInterval(interval time.Duration) PollerOption {
	return func(poller *Poller) {
		if interval >= 0 {
			poller.interval = interval
		}
	}
}

func NewPoller(indexer Indexer, logger log.Logger, options ...PollerOption) *Poller {
	poller := &Poller{
		indexer:  indexer,
		attempts: DefaultPollAttempts,
		interval: DefaultPollInterval,
		logger:   logger.With("module", "poller"),
		wait:     sleep,
	}
	for _, option := range options {
		option(poller)
	}
	return poller
}

func (poller *Poller) Poll(ctx context.Context, target PollTarget) (PollResult, error) {
	var result PollResult
	logger := poller.logger.With("project", target.ProjectID, "uid", target.UID.Hex())

	if target.TxHash != (common.Hash{}) {
		if err := poller.indexer.NotifyTransaction(ctx, target.TxHash, target.NetworkID); err != nil {
			logger.Debug("Indexer notification failed", "tx", target.TxHash.Hex(), "err", err)
		}
	}

	for attempt := 1; attempt <= poller.attempts; attempt++ {
		if attempt > 1 {
			if err := poller.wait(ctx, poller.interval); err != nil {
				return result, err
			}
		} else if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempts = attempt
		records, err := poller.indexer.FetchProjectRecords(ctx, target.ProjectID)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Debug("Fetching records failed", "attempt", attempt, "err", err)
			continue
		}
		if records.Contains(target.UID) {
			result.Found = true
			logger.Info("Record indexed", "attempts", attempt)
			return result, nil
		}
	}
	logger.Info("Record not indexed", "attempts", result.Attempts)
	return result, fmt.Errorf("%w after %d attempts", ErrIndexingTimeout, result.Attempts)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
