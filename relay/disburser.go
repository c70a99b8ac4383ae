package relay

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/chainflow/token-relay/contract"
	"github.com/chainflow/token-relay/ethclient"
	"github.com/chainflow/token-relay/logging"
	"github.com/chainflow/token-relay/utils"
)

// Disburser sends destination token transfers from the funding account and
// waits for them to confirm. Calls must not overlap, the funding account
// nonce is managed under the dispatch queue's serialization.
type Disburser struct {
	logger       logging.Logger
	client       ethclient.Client
	tokenAddress common.Address
	key          *ecdsa.PrivateKey
	sender       common.Address
	gasLimit     uint64
	pollInterval time.Duration
	waitTimeout  time.Duration
}

func NewDisburser(logger logging.Logger, client ethclient.Client, tokenAddress common.Address, fundingKeyHex string, gasLimit uint64, pollInterval, waitTimeout time.Duration) (*Disburser, error) {
	key, err := crypto.HexToECDSA(fundingKeyHex)
	if err != nil {
		return nil, fmt.Errorf("can't parse funding account key: %w", err)
	}
	return &Disburser{
		logger:       logger,
		client:       client,
		tokenAddress: tokenAddress,
		key:          key,
		sender:       crypto.PubkeyToAddress(key.PublicKey),
		gasLimit:     gasLimit,
		pollInterval: pollInterval,
		waitTimeout:  waitTimeout,
	}, nil
}

// Sender returns the funding account address.
func (d *Disburser) Sender() common.Address {
	return d.sender
}

// Disburse submits a token transfer of amount to the receiver and blocks
// until the transaction confirms. It returns the confirmed transaction hash.
func (d *Disburser) Disburse(ctx context.Context, receiver common.Address, amount *big.Int) (common.Hash, error) {
	tx, err := d.submit(ctx, receiver, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrSubmission, err)
	}
	d.logger.WithFields(logrus.Fields{
		"tx_hash":  tx.Hash(),
		"receiver": receiver,
		"amount":   amount,
		"nonce":    tx.Nonce(),
	}).Info("submitted outgoing transfer")

	if err = d.waitConfirmed(ctx, tx.Hash()); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

func (d *Disburser) submit(ctx context.Context, receiver common.Address, amount *big.Int) (*types.Transaction, error) {
	nonce, err := d.client.PendingNonceAt(ctx, d.sender)
	if err != nil {
		return nil, fmt.Errorf("can't fetch funding account nonce: %w", err)
	}
	gasPrice, err := d.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't fetch gas price: %w", err)
	}
	data, err := contract.PackTransfer(receiver, amount)
	if err != nil {
		return nil, err
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &d.tokenAddress,
		Value:    big.NewInt(0),
		Gas:      d.gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(d.client.ChainID()), d.key)
	if err != nil {
		return nil, fmt.Errorf("can't sign outgoing transaction: %w", err)
	}
	if err = d.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("can't send outgoing transaction: %w", err)
	}
	return signed, nil
}

func (d *Disburser) waitConfirmed(ctx context.Context, txHash common.Hash) error {
	deadline := time.Now().Add(d.waitTimeout)
	for {
		receipt, err := d.client.TransactionReceiptByHash(ctx, txHash)
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			d.logger.WithError(err).WithField("tx_hash", txHash).Error("can't fetch outgoing transaction receipt")
		}
		if receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("outgoing transaction %s reverted: %w", txHash, ErrSubmission)
			}
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("no receipt for %s after %s: %w", txHash, d.waitTimeout, ErrConfirmationTimeout)
		}
		if utils.ContextSleep(ctx, d.pollInterval) == nil {
			return fmt.Errorf("confirmation wait cancelled for %s: %w", txHash, ErrConfirmationTimeout)
		}
	}
}
