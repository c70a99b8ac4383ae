package relay_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/chainflow/token-relay/contract"
	"github.com/chainflow/token-relay/relay"
)

var (
	tokenAddress = common.HexToAddress("0x999A3E42B39bEfe805127EE1cd80F6339255887F")
	relayAddress = common.HexToAddress("0x123c058C58102a4eE0E24a3c7F0Cee2590e1c0f4")
	senderAddr   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	otherAddr    = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func transferLog(from, to common.Address, amount int64, block uint64, txHash common.Hash, index uint) types.Log {
	value := common.BigToHash(big.NewInt(amount))
	return types.Log{
		Address: tokenAddress,
		Topics: []common.Hash{
			contract.TransferTopic,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data:        value.Bytes(),
		BlockNumber: block,
		TxHash:      txHash,
		Index:       index,
	}
}

func TestEventSourceEnqueuesMatchingTransfers(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var processed []*relay.Event
	queue := relay.NewDispatchQueue(testLogger(), func(ctx context.Context, event *relay.Event) error {
		mu.Lock()
		processed = append(processed, event)
		mu.Unlock()
		return nil
	})

	client := newFakeClient()
	source := relay.NewEventSource(testLogger(), client, queue, tokenAddress, relayAddress)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queue.Run(ctx)
	go source.Run(ctx)
	<-client.subscribed

	txHash := common.BigToHash(big.NewInt(42))
	client.pushLog(transferLog(senderAddr, relayAddress, 1_000_000, 103, txHash, 7))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 1
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	event := processed[0]
	require.Equal(t, senderAddr, event.Sender)
	require.Equal(t, relayAddress, event.Receiver)
	require.Equal(t, big.NewInt(1_000_000), event.Amount)
	require.Equal(t, uint(103), event.BlockNumber)
	require.Equal(t, txHash, event.TxHash)
	require.Equal(t, uint(7), event.LogIndex)
}

func TestEventSourceDropsForeignReceivers(t *testing.T) {
	t.Parallel()

	var count int32
	var mu sync.Mutex
	queue := relay.NewDispatchQueue(testLogger(), func(ctx context.Context, event *relay.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	client := newFakeClient()
	source := relay.NewEventSource(testLogger(), client, queue, tokenAddress, relayAddress)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queue.Run(ctx)
	go source.Run(ctx)
	<-client.subscribed

	// receiver is not the relay address
	client.pushLog(transferLog(senderAddr, otherAddr, 500, 101, common.BigToHash(big.NewInt(1)), 0))
	// removed by a reorg
	removed := transferLog(senderAddr, relayAddress, 500, 102, common.BigToHash(big.NewInt(2)), 0)
	removed.Removed = true
	client.pushLog(removed)
	// this one qualifies
	client.pushLog(transferLog(senderAddr, relayAddress, 500, 103, common.BigToHash(big.NewInt(3)), 0))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, 5*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, int32(1), count)
}
