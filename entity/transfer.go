package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Transfer is the persisted record of one completed relay: an observed
// incoming token transfer paired with the confirmed outgoing disbursement.
// Records are written only after the outgoing transaction is confirmed and
// are never mutated afterwards.
type Transfer struct {
	ID               uint           `db:"id"`
	Sender           common.Address `db:"sender"`
	Receiver         common.Address `db:"receiver"`
	AmountReceived   string         `db:"amount_received"`
	AmountSent       string         `db:"amount_sent"`
	Fee              string         `db:"fee"`
	Price            string         `db:"price"`
	IncomingTxHash   common.Hash    `db:"incoming_tx_hash"`
	IncomingLogIndex uint           `db:"incoming_log_index"`
	IncomingBlock    uint           `db:"incoming_block"`
	OutgoingTxHash   common.Hash    `db:"outgoing_tx_hash"`
	CreatedAt        *time.Time     `db:"created_at"`
}

type TransfersRepo interface {
	Insert(ctx context.Context, transfer *Transfer) error
	GetByIncomingTx(ctx context.Context, txHash common.Hash, logIndex uint) (*Transfer, error)
	FindByIncomingTxHash(ctx context.Context, txHash common.Hash) ([]*Transfer, error)
	Find(ctx context.Context, limit, offset uint64) ([]*Transfer, error)
	LatestBlockNumber(ctx context.Context) (uint, error)
}
