package presenter

import (
	"time"

	"github.com/chainflow/token-relay/entity"
)

type TransferResult struct {
	Sender           string     `json:"sender"`
	AmountReceived   string     `json:"amount_received"`
	AmountSent       string     `json:"amount_sent"`
	Fee              string     `json:"fee"`
	Price            string     `json:"price"`
	IncomingTxHash   string     `json:"incoming_tx_hash"`
	IncomingLogIndex uint       `json:"incoming_log_index"`
	IncomingBlock    uint       `json:"incoming_block"`
	OutgoingTxHash   string     `json:"outgoing_tx_hash"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

type TransfersResult struct {
	Transfers []*TransferResult `json:"transfers"`
}

func NewTransfersResult(transfers []*entity.Transfer) *TransfersResult {
	res := &TransfersResult{
		Transfers: make([]*TransferResult, len(transfers)),
	}
	for i, t := range transfers {
		res.Transfers[i] = &TransferResult{
			Sender:           t.Sender.String(),
			AmountReceived:   t.AmountReceived,
			AmountSent:       t.AmountSent,
			Fee:              t.Fee,
			Price:            t.Price,
			IncomingTxHash:   t.IncomingTxHash.String(),
			IncomingLogIndex: t.IncomingLogIndex,
			IncomingBlock:    t.IncomingBlock,
			OutgoingTxHash:   t.OutgoingTxHash.String(),
			CreatedAt:        t.CreatedAt,
		}
	}
	return res
}
