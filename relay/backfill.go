package relay

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/chainflow/token-relay/contract"
	"github.com/chainflow/token-relay/db"
	"github.com/chainflow/token-relay/entity"
	"github.com/chainflow/token-relay/ethclient"
	"github.com/chainflow/token-relay/logging"
	"github.com/chainflow/token-relay/utils"
)

// ledgerLookupConcurrency bounds parallel dedup lookups so that a large
// scan does not hammer the database, mirroring the provider rate limits
// respected elsewhere.
const ledgerLookupConcurrency = 3

// Backfiller recovers transfer events missed by the live subscription. It
// scans the block range between the last recorded transfer and the current
// chain head and returns the events with no persisted record yet.
type Backfiller struct {
	logger       logging.Logger
	client       ethclient.Client
	transfers    entity.TransfersRepo
	tokenAddress common.Address
	relayAddress common.Address
	genesisBlock uint
}

func NewBackfiller(logger logging.Logger, client ethclient.Client, transfers entity.TransfersRepo, tokenAddress, relayAddress common.Address, genesisBlock uint) *Backfiller {
	return &Backfiller{
		logger:       logger,
		client:       client,
		transfers:    transfers,
		tokenAddress: tokenAddress,
		relayAddress: relayAddress,
		genesisBlock: genesisBlock,
	}
}

// FindMissing returns all unrecorded qualifying transfers between the last
// recorded block and the chain head, ordered by (block, log index). The
// call either returns the full candidate set or fails, it never applies
// partially, so the caller can simply retry on the next scheduled run.
func (b *Backfiller) FindMissing(ctx context.Context) ([]*Event, error) {
	fromBlock, err := b.transfers.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't fetch last recorded block: %w", err)
	}
	if fromBlock == 0 {
		fromBlock = b.genesisBlock
	}
	head, err := b.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't fetch chain head: %w", err)
	}
	if head < fromBlock {
		return nil, nil
	}
	b.logger.WithFields(logrus.Fields{
		"from_block": fromBlock,
		"to_block":   head,
	}).Info("scanning block range for missed transfers")

	logs, err := b.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: big.NewInt(int64(fromBlock)),
		ToBlock:   big.NewInt(int64(head)),
		Addresses: []common.Address{b.tokenAddress},
		Topics:    [][]common.Hash{{contract.TransferTopic}},
	})
	if err != nil {
		return nil, fmt.Errorf("can't fetch logs in range %d-%d: %w", fromBlock, head, err)
	}

	var candidates []*Event
	for _, log := range logs {
		if log.Removed {
			continue
		}
		event, err2 := NewEventFromLog(log)
		if err2 != nil {
			b.logger.WithError(err2).WithField("tx_hash", log.TxHash).Warn("skipping undecodable log")
			continue
		}
		if event.Receiver != b.relayAddress {
			continue
		}
		candidates = append(candidates, event)
	}

	missing, err := b.filterRecorded(ctx, candidates)
	if err != nil {
		return nil, err
	}
	sort.Slice(missing, func(i, j int) bool {
		a, c := missing[i], missing[j]
		return a.BlockNumber < c.BlockNumber || (a.BlockNumber == c.BlockNumber && a.LogIndex < c.LogIndex)
	})
	LastBackfilledBlock.Set(float64(head))
	b.logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"missing":    len(missing),
	}).Info("finished missed transfers scan")
	return missing, nil
}

// filterRecorded drops candidates that already have a transfer record,
// keyed by (incoming tx hash, log index). Lookups run with bounded
// concurrency, any failure fails the whole scan.
func (b *Backfiller) filterRecorded(ctx context.Context, candidates []*Event) ([]*Event, error) {
	keep := make([]bool, len(candidates))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(ledgerLookupConcurrency)
	for i, event := range candidates {
		i, event := i, event
		group.Go(func() error {
			_, err := b.transfers.GetByIncomingTx(groupCtx, event.TxHash, event.LogIndex)
			if errors.Is(err, db.ErrNotFound) {
				keep[i] = true
				return nil
			}
			if err != nil {
				return fmt.Errorf("can't check transfer record for %s: %w", event.TxHash, err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	missing := make([]*Event, 0, len(candidates))
	for i, event := range candidates {
		if keep[i] {
			missing = append(missing, event)
		}
	}
	return missing, nil
}

// RunPeriodically reconciles on the given interval until ctx cancellation,
// re-injecting recovered events into the dispatch queue. The first pass
// runs immediately to cover downtime before the subscription caught up.
func (b *Backfiller) RunPeriodically(ctx context.Context, queue *DispatchQueue, interval time.Duration) {
	b.logger.WithField("interval", interval).Info("starting backfill reconciler")
	for {
		events, err := b.FindMissing(ctx)
		if err != nil {
			b.logger.WithError(err).Error("backfill scan failed, will retry on next run")
		}
		for _, event := range events {
			BackfilledEvents.Inc()
			queue.Enqueue(event)
		}
		if utils.ContextSleep(ctx, interval) == nil {
			return
		}
	}
}
