package relay

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/chainflow/token-relay/contract"
)

// Event is one observed incoming token transfer addressed to the relay
// address. Events are immutable once constructed and identified by the
// (transaction hash, log index) pair, a single transaction may carry
// several qualifying transfers.
type Event struct {
	Sender      common.Address
	Receiver    common.Address
	Amount      *big.Int
	BlockNumber uint
	TxHash      common.Hash
	LogIndex    uint
}

// NewEventFromLog decodes a raw chain log into an Event. It does not check
// the receiver, callers filter against the relay address themselves.
func NewEventFromLog(log types.Log) (*Event, error) {
	transfer, err := contract.DecodeTransfer(log)
	if err != nil {
		return nil, fmt.Errorf("can't decode transfer log: %w", err)
	}
	return &Event{
		Sender:      transfer.From,
		Receiver:    transfer.To,
		Amount:      transfer.Value,
		BlockNumber: uint(log.BlockNumber),
		TxHash:      log.TxHash,
		LogIndex:    uint(log.Index),
	}, nil
}
