package relay_test

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/chainflow/token-relay/db"
	"github.com/chainflow/token-relay/entity"
	"github.com/chainflow/token-relay/logging"
)

func testLogger() logging.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// fakeClient implements ethclient.Client for pipeline tests.
type fakeClient struct {
	mu           sync.Mutex
	headBlock    uint
	logs         []types.Log
	filterErr    error
	subCh        chan<- types.Log
	subscribed   chan struct{}
	nonce        uint64
	sendErr      error
	sentTxs      []*types.Transaction
	receipts     map[common.Hash]*types.Receipt
	anyReceipt   *types.Receipt
	receiptCalls map[common.Hash]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		subscribed:   make(chan struct{}, 1),
		receipts:     make(map[common.Hash]*types.Receipt),
		receiptCalls: make(map[common.Hash]int),
	}
}

func (c *fakeClient) BlockNumber(ctx context.Context) (uint, error) {
	return c.headBlock, nil
}

func (c *fakeClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if c.filterErr != nil {
		return nil, c.filterErr
	}
	from, to := q.FromBlock.Uint64(), q.ToBlock.Uint64()
	var res []types.Log
	for _, log := range c.logs {
		if log.BlockNumber >= from && log.BlockNumber <= to {
			res = append(res, log)
		}
	}
	return res, nil
}

func (c *fakeClient) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	c.mu.Lock()
	c.subCh = ch
	c.mu.Unlock()
	select {
	case c.subscribed <- struct{}{}:
	default:
	}
	return &fakeSubscription{errCh: make(chan error)}, nil
}

func (c *fakeClient) pushLog(log types.Log) {
	c.mu.Lock()
	ch := c.subCh
	c.mu.Unlock()
	ch <- log
}

func (c *fakeClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.mu.Lock()
	c.sentTxs = append(c.sentTxs, tx)
	c.mu.Unlock()
	return nil
}

func (c *fakeClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return c.nonce, nil
}

func (c *fakeClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (c *fakeClient) TransactionReceiptByHash(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiptCalls[txHash]++
	if receipt, ok := c.receipts[txHash]; ok {
		return receipt, nil
	}
	if c.anyReceipt != nil {
		return c.anyReceipt, nil
	}
	return nil, ethereum.NotFound
}

func (c *fakeClient) ChainID() *big.Int {
	return big.NewInt(1337)
}

type fakeSubscription struct {
	errCh chan error
}

func (s *fakeSubscription) Err() <-chan error {
	return s.errCh
}

func (s *fakeSubscription) Unsubscribe() {}

// fakeTransfersRepo implements entity.TransfersRepo in memory.
type fakeTransfersRepo struct {
	mu        sync.Mutex
	transfers []*entity.Transfer
	insertErr error
	lookupErr error
}

func (r *fakeTransfersRepo) Insert(ctx context.Context, transfer *entity.Transfer) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	transfer.ID = uint(len(r.transfers) + 1)
	r.transfers = append(r.transfers, transfer)
	return nil
}

func (r *fakeTransfersRepo) GetByIncomingTx(ctx context.Context, txHash common.Hash, logIndex uint) (*entity.Transfer, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.transfers {
		if t.IncomingTxHash == txHash && t.IncomingLogIndex == logIndex {
			return t, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *fakeTransfersRepo) FindByIncomingTxHash(ctx context.Context, txHash common.Hash) ([]*entity.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*entity.Transfer
	for _, t := range r.transfers {
		if t.IncomingTxHash == txHash {
			res = append(res, t)
		}
	}
	return res, nil
}

func (r *fakeTransfersRepo) Find(ctx context.Context, limit, offset uint64) ([]*entity.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.Transfer(nil), r.transfers...), nil
}

func (r *fakeTransfersRepo) LatestBlockNumber(ctx context.Context) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var max uint
	for _, t := range r.transfers {
		if t.IncomingBlock > max {
			max = t.IncomingBlock
		}
	}
	return max, nil
}

var errBoom = errors.New("boom")
