package contract

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const erc20JSON = `[
	{"type":"event","name":"Transfer","inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}
	],"anonymous":false},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[
		{"name":"to","type":"address"},
		{"name":"value","type":"uint256"}
	],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[
		{"name":"owner","type":"address"}
	],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	ERC20         = mustParseABI(erc20JSON)
	TransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
)

func mustParseABI(blob string) abi.ABI {
	res, err := abi.JSON(strings.NewReader(blob))
	if err != nil {
		panic(fmt.Errorf("can't parse ERC20 abi: %w", err))
	}
	return res
}

// TransferEvent is a decoded ERC20 Transfer log.
type TransferEvent struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

func DecodeTransfer(log types.Log) (*TransferEvent, error) {
	if len(log.Topics) != 3 || log.Topics[0] != TransferTopic {
		return nil, fmt.Errorf("log %s is not an ERC20 Transfer event", log.TxHash)
	}
	values, err := ERC20.Unpack("Transfer", log.Data)
	if err != nil {
		return nil, fmt.Errorf("can't unpack Transfer log data: %w", err)
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected Transfer value type %T", values[0])
	}
	return &TransferEvent{
		From:  common.BytesToAddress(log.Topics[1].Bytes()),
		To:    common.BytesToAddress(log.Topics[2].Bytes()),
		Value: value,
	}, nil
}

func PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	data, err := ERC20.Pack("transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("can't encode transfer calldata: %w", err)
	}
	return data, nil
}
