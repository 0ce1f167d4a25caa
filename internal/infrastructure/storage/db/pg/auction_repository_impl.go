package postgresdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/bookswap/internal/core/domain"
)

const (
	auctionColumns = `id, swap_id, owner_id, status, end_date,
	allow_booking_proposals, allow_cash_proposals, minimum_cash_offer,
	auto_select_after_hours, winning_proposal_id, auto_selected, unresolved,
	cancelled, settled, last_sequence, ended_at, created_at, updated_at`

	insertAuctionQuery = `INSERT INTO auctions (` + auctionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
	$16, $17, $18)`

	selectAuctionQuery = `SELECT ` + auctionColumns + ` FROM auctions`

	updateAuctionQuery = `UPDATE auctions SET status = $2,
	winning_proposal_id = $3, auto_selected = $4, unresolved = $5,
	cancelled = $6, settled = $7, last_sequence = $8, ended_at = $9,
	updated_at = $10 WHERE id = $1`

	proposalColumns = `id, auction_id, swap_id, proposer_id, type, booking_id,
	amount, currency, payment_method_id, escrow_agreed, message, conditions,
	status, sequence, idempotency_key, escrow_id, created_at, updated_at`

	upsertProposalQuery = `INSERT INTO proposals (` + proposalColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
	$16, $17, $18)
	ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status,
	escrow_id = EXCLUDED.escrow_id, updated_at = EXCLUDED.updated_at`

	selectProposalsQuery = `SELECT ` + proposalColumns + ` FROM proposals
	WHERE auction_id = ANY($1) ORDER BY auction_id, sequence`
)

type auctionRepositoryImpl struct {
	db     *sql.DB
	execTx execTxFn
}

func NewAuctionRepositoryImpl(
	db *sql.DB, execTx execTxFn,
) domain.AuctionRepository {
	return &auctionRepositoryImpl{db, execTx}
}

func (r *auctionRepositoryImpl) AddAuction(
	ctx context.Context, auction *domain.Auction,
) error {
	return r.execTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		s := auction.Settings
		if _, err := tx.ExecContext(
			ctx, insertAuctionQuery,
			auction.ID, auction.SwapID, auction.OwnerID, string(auction.Status),
			s.EndDate, s.AllowBookingProposals, s.AllowCashProposals,
			s.MinimumCashOffer, s.AutoSelectAfterHours,
			auction.WinningProposalID, auction.AutoSelected, auction.Unresolved,
			auction.Cancelled, auction.Settled, auction.Ledger.LastSequence,
			nullTime(auction.EndedAt), auction.CreatedAt, auction.UpdatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAuctionAlreadyExists
			}
			return err
		}
		return upsertProposals(ctx, tx, auction.Ledger.Proposals)
	})
}

func (r *auctionRepositoryImpl) GetAuction(
	ctx context.Context, auctionID string,
) (*domain.Auction, error) {
	auctions, err := queryAuctions(
		ctx, r.db, selectAuctionQuery+" WHERE id = $1", auctionID,
	)
	if err != nil {
		return nil, err
	}
	if len(auctions) == 0 {
		return nil, domain.ErrAuctionNotFound
	}
	return auctions[0], nil
}

func (r *auctionRepositoryImpl) GetAllAuctions(
	ctx context.Context, page *domain.Page,
) ([]*domain.Auction, error) {
	query := selectAuctionQuery + " ORDER BY created_at, id"
	if page != nil {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", page.Size, page.Offset())
	}
	return queryAuctions(ctx, r.db, query)
}

func (r *auctionRepositoryImpl) GetAuctionsToResolve(
	ctx context.Context, now time.Time,
) ([]*domain.Auction, error) {
	auctions, err := queryAuctions(
		ctx, r.db, selectAuctionQuery+" WHERE settled = FALSE",
	)
	if err != nil {
		return nil, err
	}

	due := make([]*domain.Auction, 0, len(auctions))
	for _, a := range auctions {
		if a.NeedsResolution(now) || a.NeedsSettlement() {
			due = append(due, a)
		}
	}
	return due, nil
}

// UpdateAuction locks the auction row for the whole transaction, so that
// concurrent updates of the same auction are applied one after the other.
func (r *auctionRepositoryImpl) UpdateAuction(
	ctx context.Context,
	auctionID string,
	updateFn func(a *domain.Auction) (*domain.Auction, error),
) error {
	return r.execTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		auctions, err := queryAuctions(
			ctx, tx, selectAuctionQuery+" WHERE id = $1 FOR UPDATE", auctionID,
		)
		if err != nil {
			return err
		}
		if len(auctions) == 0 {
			return domain.ErrAuctionNotFound
		}

		updatedAuction, err := updateFn(auctions[0])
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(
			ctx, updateAuctionQuery,
			auctionID, string(updatedAuction.Status),
			updatedAuction.WinningProposalID, updatedAuction.AutoSelected,
			updatedAuction.Unresolved, updatedAuction.Cancelled,
			updatedAuction.Settled, updatedAuction.Ledger.LastSequence,
			nullTime(updatedAuction.EndedAt), updatedAuction.UpdatedAt,
		); err != nil {
			return err
		}
		return upsertProposals(ctx, tx, updatedAuction.Ledger.Proposals)
	})
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func queryAuctions(
	ctx context.Context, q querier, query string, args ...interface{},
) ([]*domain.Auction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	auctions := make([]*domain.Auction, 0)
	byID := make(map[string]*domain.Auction)
	ids := make([]string, 0)
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		auctions = append(auctions, auction)
		byID[auction.ID] = auction
		ids = append(ids, auction.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(ids) == 0 {
		return auctions, nil
	}

	proposals, err := q.QueryContext(ctx, selectProposalsQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer proposals.Close()

	for proposals.Next() {
		p, err := scanProposal(proposals)
		if err != nil {
			return nil, err
		}
		auction := byID[p.AuctionID]
		auction.Ledger.Proposals = append(auction.Ledger.Proposals, p)
	}
	return auctions, proposals.Err()
}

func scanAuction(rows *sql.Rows) (*domain.Auction, error) {
	var (
		a       domain.Auction
		status  string
		endedAt sql.NullTime
	)
	if err := rows.Scan(
		&a.ID, &a.SwapID, &a.OwnerID, &status, &a.Settings.EndDate,
		&a.Settings.AllowBookingProposals, &a.Settings.AllowCashProposals,
		&a.Settings.MinimumCashOffer, &a.Settings.AutoSelectAfterHours,
		&a.WinningProposalID, &a.AutoSelected, &a.Unresolved, &a.Cancelled,
		&a.Settled, &a.Ledger.LastSequence, &endedAt, &a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.Status = domain.AuctionStatus(status)
	a.Settings.EndDate = a.Settings.EndDate.UTC()
	if endedAt.Valid {
		a.EndedAt = endedAt.Time.UTC()
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	a.Ledger.Proposals = make([]*domain.Proposal, 0)
	return &a, nil
}

func scanProposal(rows *sql.Rows) (*domain.Proposal, error) {
	var (
		p                              domain.Proposal
		proposalType, status           string
		bookingID, currency, paymentID string
		amount                         decimal.NullDecimal
		escrowAgreed                   bool
		conditions                     pq.StringArray
	)
	if err := rows.Scan(
		&p.ID, &p.AuctionID, &p.SwapID, &p.ProposerID, &proposalType,
		&bookingID, &amount, &currency, &paymentID, &escrowAgreed, &p.Message,
		&conditions, &status, &p.Sequence, &p.IdempotencyKey, &p.EscrowID,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	switch domain.ProposalType(proposalType) {
	case domain.ProposalTypeBooking:
		p.Body = domain.BookingProposal{BookingID: bookingID}
	case domain.ProposalTypeCash:
		p.Body = domain.CashProposal{
			Amount:          amount.Decimal,
			Currency:        currency,
			PaymentMethodID: paymentID,
			EscrowAgreed:    escrowAgreed,
		}
	default:
		return nil, fmt.Errorf("unknown proposal type %q", proposalType)
	}
	p.Status = domain.ProposalStatus(status)
	if len(conditions) > 0 {
		p.Conditions = []string(conditions)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func upsertProposals(
	ctx context.Context, tx *sql.Tx, proposals []*domain.Proposal,
) error {
	for _, p := range proposals {
		var (
			bookingID, currency, paymentID string
			amount                         decimal.NullDecimal
			escrowAgreed                   bool
		)
		conditions := pq.StringArray{}
		if len(p.Conditions) > 0 {
			conditions = pq.StringArray(p.Conditions)
		}
		if b, ok := p.Booking(); ok {
			bookingID = b.BookingID
		}
		if c, ok := p.Cash(); ok {
			amount = decimal.NullDecimal{Decimal: c.Amount, Valid: true}
			currency = c.Currency
			paymentID = c.PaymentMethodID
			escrowAgreed = c.EscrowAgreed
		}

		if _, err := tx.ExecContext(
			ctx, upsertProposalQuery,
			p.ID, p.AuctionID, p.SwapID, p.ProposerID, string(p.Type()),
			bookingID, amount, currency, paymentID, escrowAgreed, p.Message,
			conditions, string(p.Status), p.Sequence,
			p.IdempotencyKey, p.EscrowID, p.CreatedAt, p.UpdatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateProposal
			}
			return err
		}
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
