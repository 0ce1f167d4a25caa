package postgresdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/tdex-network/bookswap/internal/core/domain"
)

const (
	swapColumns = `id, source_booking_id, owner_id, proposer_id, status,
	acceptance_strategy, booking_exchange_allowed, cash_allowed,
	minimum_cash_amount, target, auction_id, created_at, updated_at`

	insertSwapQuery = `INSERT INTO swaps (` + swapColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	selectSwapQuery = `SELECT ` + swapColumns + ` FROM swaps WHERE id = $1`

	updateSwapQuery = `UPDATE swaps SET proposer_id = $2, status = $3,
	acceptance_strategy = $4, booking_exchange_allowed = $5, cash_allowed = $6,
	minimum_cash_amount = $7, target = $8, auction_id = $9, updated_at = $10
	WHERE id = $1`
)

type swapRepositoryImpl struct {
	db     *sql.DB
	execTx execTxFn
}

func NewSwapRepositoryImpl(db *sql.DB, execTx execTxFn) domain.SwapRepository {
	return &swapRepositoryImpl{db, execTx}
}

func (r *swapRepositoryImpl) AddSwap(
	ctx context.Context, swap *domain.SwapOffer,
) error {
	target, err := marshalTarget(swap.Target)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(
		ctx, insertSwapQuery,
		swap.ID, swap.SourceBookingID, swap.OwnerID, swap.ProposerID,
		string(swap.Status), string(swap.AcceptanceStrategy),
		swap.Payment.BookingExchangeAllowed, swap.Payment.CashAllowed,
		swap.Payment.MinimumCashAmount, target, swap.AuctionID,
		swap.CreatedAt, swap.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSwapAlreadyExists
		}
		return err
	}
	return nil
}

func (r *swapRepositoryImpl) GetSwap(
	ctx context.Context, swapID string,
) (*domain.SwapOffer, error) {
	return scanSwap(r.db.QueryRowContext(ctx, selectSwapQuery, swapID))
}

func (r *swapRepositoryImpl) UpdateSwap(
	ctx context.Context,
	swapID string,
	updateFn func(s *domain.SwapOffer) (*domain.SwapOffer, error),
) error {
	return r.execTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		swap, err := scanSwap(
			tx.QueryRowContext(ctx, selectSwapQuery+" FOR UPDATE", swapID),
		)
		if err != nil {
			return err
		}

		updatedSwap, err := updateFn(swap)
		if err != nil {
			return err
		}

		target, err := marshalTarget(updatedSwap.Target)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(
			ctx, updateSwapQuery,
			swapID, updatedSwap.ProposerID, string(updatedSwap.Status),
			string(updatedSwap.AcceptanceStrategy),
			updatedSwap.Payment.BookingExchangeAllowed,
			updatedSwap.Payment.CashAllowed,
			updatedSwap.Payment.MinimumCashAmount, target,
			updatedSwap.AuctionID, updatedSwap.UpdatedAt,
		)
		return err
	})
}

func scanSwap(row *sql.Row) (*domain.SwapOffer, error) {
	var (
		swap             domain.SwapOffer
		status, strategy string
		target           sql.NullString
	)
	if err := row.Scan(
		&swap.ID, &swap.SourceBookingID, &swap.OwnerID, &swap.ProposerID,
		&status, &strategy, &swap.Payment.BookingExchangeAllowed,
		&swap.Payment.CashAllowed, &swap.Payment.MinimumCashAmount, &target,
		&swap.AuctionID, &swap.CreatedAt, &swap.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSwapNotFound
		}
		return nil, err
	}

	swap.Status = domain.SwapStatus(status)
	swap.AcceptanceStrategy = domain.AcceptanceStrategy(strategy)
	if target.Valid {
		swap.Target = &domain.SwapTarget{}
		if err := json.Unmarshal([]byte(target.String), swap.Target); err != nil {
			return nil, err
		}
	}
	swap.CreatedAt = swap.CreatedAt.UTC()
	swap.UpdatedAt = swap.UpdatedAt.UTC()
	return &swap, nil
}

func marshalTarget(target *domain.SwapTarget) (sql.NullString, error) {
	if target == nil {
		return sql.NullString{}, nil
	}
	buf, err := json.Marshal(target)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(buf), Valid: true}, nil
}
