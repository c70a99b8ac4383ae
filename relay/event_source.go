package relay

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/chainflow/token-relay/contract"
	"github.com/chainflow/token-relay/ethclient"
	"github.com/chainflow/token-relay/logging"
	"github.com/chainflow/token-relay/utils"
)

const resubscribeInterval = 10 * time.Second

// EventSource maintains a live subscription to Transfer logs of the source
// token contract and feeds qualifying events into the dispatch queue.
// Enqueueing is fire-and-forget, the source never waits for processing.
type EventSource struct {
	logger       logging.Logger
	client       ethclient.Client
	queue        *DispatchQueue
	tokenAddress common.Address
	relayAddress common.Address
}

func NewEventSource(logger logging.Logger, client ethclient.Client, queue *DispatchQueue, tokenAddress, relayAddress common.Address) *EventSource {
	return &EventSource{
		logger:       logger,
		client:       client,
		queue:        queue,
		tokenAddress: tokenAddress,
		relayAddress: relayAddress,
	}
}

// Run keeps the subscription alive until ctx is cancelled. Subscription
// failures are logged and retried, missed events are recovered by the
// backfill reconciler.
func (s *EventSource) Run(ctx context.Context) {
	s.logger.WithFields(logrus.Fields{
		"token_address": s.tokenAddress,
		"relay_address": s.relayAddress,
	}).Info("starting transfer event listener")
	for {
		err := s.subscribe(ctx)
		if err == nil {
			return
		}
		s.logger.WithError(err).Error("transfer subscription failed, resubscribing")
		if utils.ContextSleep(ctx, resubscribeInterval) == nil {
			return
		}
	}
}

func (s *EventSource) subscribe(ctx context.Context) error {
	logs := make(chan types.Log, 64)
	sub, err := s.client.SubscribeFilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{s.tokenAddress},
		Topics:    [][]common.Hash{{contract.TransferTopic}},
	}, logs)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case log := <-logs:
			s.handleLog(log)
		}
	}
}

func (s *EventSource) handleLog(log types.Log) {
	if log.Removed {
		s.logger.WithField("tx_hash", log.TxHash).Warn("ignoring removed log")
		return
	}
	event, err := NewEventFromLog(log)
	if err != nil {
		s.logger.WithError(err).WithField("tx_hash", log.TxHash).Error("can't decode transfer log")
		return
	}
	if event.Receiver != s.relayAddress {
		return
	}
	s.queue.Enqueue(event)
}
