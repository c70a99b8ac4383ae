package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/chainflow/token-relay/db"
	"github.com/chainflow/token-relay/entity"
)

type transfersRepo basePostgresRepo

func NewTransfersRepo(table string, db *db.DB) entity.TransfersRepo {
	return (*transfersRepo)(newBasePostgresRepo(table, db))
}

func (r *transfersRepo) Insert(ctx context.Context, transfer *entity.Transfer) error {
	q, args, err := sq.Insert(r.table).
		Columns("sender", "receiver", "amount_received", "amount_sent", "fee", "price",
			"incoming_tx_hash", "incoming_log_index", "incoming_block", "outgoing_tx_hash").
		Values(transfer.Sender, transfer.Receiver, transfer.AmountReceived, transfer.AmountSent,
			transfer.Fee, transfer.Price, transfer.IncomingTxHash, transfer.IncomingLogIndex,
			transfer.IncomingBlock, transfer.OutgoingTxHash).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	err = r.db.GetContext(ctx, &transfer.ID, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert transfer: %w", err)
	}
	return nil
}

func (r *transfersRepo) GetByIncomingTx(ctx context.Context, txHash common.Hash, logIndex uint) (*entity.Transfer, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"incoming_tx_hash": txHash, "incoming_log_index": logIndex}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	transfer := new(entity.Transfer)
	err = r.db.GetContext(ctx, transfer, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get transfer by incoming tx: %w", err)
	}
	return transfer, nil
}

func (r *transfersRepo) FindByIncomingTxHash(ctx context.Context, txHash common.Hash) ([]*entity.Transfer, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"incoming_tx_hash": txHash}).
		OrderBy("incoming_log_index").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	transfers := make([]*entity.Transfer, 0, 1)
	err = r.db.SelectContext(ctx, &transfers, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't find transfers by incoming tx hash: %w", err)
	}
	return transfers, nil
}

func (r *transfersRepo) Find(ctx context.Context, limit, offset uint64) ([]*entity.Transfer, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		OrderBy("id DESC").
		Limit(limit).
		Offset(offset).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	transfers := make([]*entity.Transfer, 0, limit)
	err = r.db.SelectContext(ctx, &transfers, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't find transfers: %w", err)
	}
	return transfers, nil
}

func (r *transfersRepo) LatestBlockNumber(ctx context.Context) (uint, error) {
	q, _, err := sq.Select("COALESCE(MAX(incoming_block), 0)").
		From(r.table).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("can't build query: %w", err)
	}
	var block uint
	err = r.db.GetContext(ctx, &block, q)
	if err != nil {
		return 0, fmt.Errorf("can't get latest recorded block: %w", err)
	}
	return block, nil
}
