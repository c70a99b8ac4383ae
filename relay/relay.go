// Package relay contains the event-driven relay pipeline: the transfer
// event subscription, the serialized dispatch queue, amount conversion,
// disbursement on the destination chain and the backfill reconciler.
package relay

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/chainflow/token-relay/config"
	"github.com/chainflow/token-relay/entity"
	"github.com/chainflow/token-relay/ethclient"
	"github.com/chainflow/token-relay/logging"
	"github.com/chainflow/token-relay/repository"
)

// PriceOracle quotes the destination asset price in the reference currency.
type PriceOracle interface {
	FetchPrice(ctx context.Context) (decimal.Decimal, error)
}

// Relay wires the pipeline together: events discovered by the live
// subscription and by the backfill reconciler funnel into one dispatch
// queue, whose single worker converts, disburses and records each transfer.
type Relay struct {
	logger     logging.Logger
	cfg        *config.RelayConfig
	repo       *repository.Repo
	oracle     PriceOracle
	converter  *Converter
	disburser  *Disburser
	queue      *DispatchQueue
	source     *EventSource
	backfiller *Backfiller
}

func NewRelay(logger logging.Logger, repo *repository.Repo, cfg *config.RelayConfig, sourceClient, destClient ethclient.Client, oracle PriceOracle) (*Relay, error) {
	r := &Relay{
		logger: logger,
		cfg:    cfg,
		repo:   repo,
		oracle: oracle,
		converter: NewConverter(cfg.Fee,
			cfg.SourceToken.Decimals, cfg.DestinationToken.Decimals),
	}
	disburser, err := NewDisburser(
		logger.WithField("service", "disburser"),
		destClient,
		cfg.DestinationToken.Addr,
		cfg.FundingAccountKey,
		cfg.DisbursementGasCap,
		cfg.ConfirmationPoll.Duration(),
		cfg.ConfirmationWait.Duration(),
	)
	if err != nil {
		return nil, err
	}
	r.disburser = disburser
	r.queue = NewDispatchQueue(logger.WithField("service", "queue"), r.processEvent)
	r.source = NewEventSource(
		logger.WithField("service", "event_source"),
		sourceClient,
		r.queue,
		cfg.SourceToken.Addr,
		cfg.RelayAddr,
	)
	r.backfiller = NewBackfiller(
		logger.WithField("service", "backfill"),
		sourceClient,
		repo.Transfers,
		cfg.SourceToken.Addr,
		cfg.RelayAddr,
		cfg.GenesisBlock,
	)
	return r, nil
}

// Start launches the queue worker, the live event source and the periodic
// backfill reconciler. It returns immediately, the pipeline stops when ctx
// is cancelled.
func (r *Relay) Start(ctx context.Context) {
	go r.queue.Run(ctx)
	go r.source.Run(ctx)
	go r.backfiller.RunPeriodically(ctx, r.queue, r.cfg.BackfillInterval.Duration())
}

// processEvent relays one incoming transfer: fresh price quote, conversion,
// disbursement, record. It runs only on the dispatch queue worker.
func (r *Relay) processEvent(ctx context.Context, event *Event) error {
	price, err := r.oracle.FetchPrice(ctx)
	if err != nil {
		return fmt.Errorf("can't fetch price quote: %w", err)
	}
	conversion, err := r.converter.Convert(event.Amount, price)
	if err != nil {
		return fmt.Errorf("can't convert amount %s: %w", event.Amount, err)
	}

	outgoingHash, err := r.disburser.Disburse(ctx, event.Sender, conversion.Amount)
	if err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"incoming_tx": event.TxHash,
		"outgoing_tx": outgoingHash,
		"amount_sent": conversion.Amount,
		"fee":         conversion.Fee,
		"price":       conversion.Price,
	}).Info("outgoing transfer confirmed")
	disbursed, _ := new(big.Float).SetInt(conversion.Amount).Float64()
	AmountDisbursed.Add(disbursed)

	err = r.repo.Transfers.Insert(ctx, &entity.Transfer{
		Sender:           event.Sender,
		Receiver:         event.Receiver,
		AmountReceived:   event.Amount.String(),
		AmountSent:       conversion.Amount.String(),
		Fee:              conversion.Fee.String(),
		Price:            conversion.Price.String(),
		IncomingTxHash:   event.TxHash,
		IncomingLogIndex: event.LogIndex,
		IncomingBlock:    event.BlockNumber,
		OutgoingTxHash:   outgoingHash,
	})
	if err != nil {
		// Worst case of the pipeline: funds left the funding account but no
		// record exists, so the backfill reconciler will relay this event
		// again. Needs manual remediation before the next backfill run.
		r.logger.WithError(err).WithFields(logrus.Fields{
			"incoming_tx": event.TxHash,
			"outgoing_tx": outgoingHash,
		}).Error("FUNDS SENT BUT RECORD WRITE FAILED")
		return fmt.Errorf("%w after disbursement %s: %s", ErrPersistence, outgoingHash, err)
	}
	return nil
}
