package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SwapStatus represents the different statuses that a swap offer can assume.
type SwapStatus string

const (
	SwapStatusAvailable SwapStatus = "available"
	SwapStatusPending   SwapStatus = "pending"
	SwapStatusAccepted  SwapStatus = "accepted"
	SwapStatusCancelled SwapStatus = "cancelled"
	SwapStatusCompleted SwapStatus = "completed"
	SwapStatusExpired   SwapStatus = "expired"
)

// IsTerminal returns whether no further transition is possible.
func (s SwapStatus) IsTerminal() bool {
	return s == SwapStatusAccepted ||
		s == SwapStatusCancelled ||
		s == SwapStatusCompleted
}

// IsOpen returns whether the swap can still receive proposals.
func (s SwapStatus) IsOpen() bool {
	return s == SwapStatusAvailable || s == SwapStatusPending
}

// AcceptanceStrategy tells how a swap offer picks its counterpart.
type AcceptanceStrategy string

const (
	// StrategyFirstMatch accepts the first valid proposal directly.
	StrategyFirstMatch AcceptanceStrategy = "first_match"
	// StrategyAuction collects and compares proposals before resolving.
	StrategyAuction AcceptanceStrategy = "auction"
)

// PaymentPreferences lists what kind of counter offers the owner accepts.
type PaymentPreferences struct {
	BookingExchangeAllowed bool
	CashAllowed            bool
	MinimumCashAmount      decimal.Decimal
}

// SwapTarget is the counterpart of an accepted swap.
type SwapTarget struct {
	ProposalID string
	ProposerID string
	BookingID  string
	CashAmount decimal.Decimal
	Currency   string
}

// SwapOffer is the data structure representing a swap offer entity.
type SwapOffer struct {
	ID                 string
	SourceBookingID    string
	OwnerID            string
	ProposerID         string
	Status             SwapStatus
	AcceptanceStrategy AcceptanceStrategy
	Payment            PaymentPreferences
	Target             *SwapTarget
	AuctionID          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewSwapOffer returns a swap offer with a new id, owned and initially
// proposed by ownerID. Listed offers start as pending and are publicly
// browsable, the others start as available.
func NewSwapOffer(
	ownerID, sourceBookingID string, payment PaymentPreferences,
	listed bool, now time.Time,
) (*SwapOffer, error) {
	if ownerID == "" {
		return nil, ErrSwapMissingOwner
	}
	if sourceBookingID == "" {
		return nil, ErrSwapMissingSourceBooking
	}
	if !payment.BookingExchangeAllowed && !payment.CashAllowed {
		return nil, ErrSwapNoPaymentAllowed
	}
	if payment.MinimumCashAmount.IsNegative() {
		return nil, ErrSwapNegativeMinimumCash
	}

	status := SwapStatusAvailable
	if listed {
		status = SwapStatusPending
	}
	return &SwapOffer{
		ID:                 uuid.New().String(),
		SourceBookingID:    sourceBookingID,
		OwnerID:            ownerID,
		ProposerID:         ownerID,
		Status:             status,
		AcceptanceStrategy: StrategyFirstMatch,
		Payment:            payment,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// IsOwner ...
func (s *SwapOffer) IsOwner(userID string) bool {
	return userID != "" && s.OwnerID == userID
}

// AttachAuction switches the swap to the auction strategy.
func (s *SwapOffer) AttachAuction(auctionID string, now time.Time) error {
	if !s.Status.IsOpen() {
		return ErrSwapNotOpen
	}
	if s.AuctionID != "" && s.AuctionID != auctionID {
		return ErrSwapAlreadyInAuction
	}
	s.AuctionID = auctionID
	s.AcceptanceStrategy = StrategyAuction
	s.UpdatedAt = now
	return nil
}

// DowngradeToFirstMatch makes an unresolved auction swap accept the first
// subsequent compatible proposal. The swap stays open.
func (s *SwapOffer) DowngradeToFirstMatch(now time.Time) {
	if s.AcceptanceStrategy == StrategyFirstMatch {
		return
	}
	s.AcceptanceStrategy = StrategyFirstMatch
	s.UpdatedAt = now
}

// Accept brings an open swap to the accepted status with the given target.
// Accepting again with the same proposal is a no-op.
func (s *SwapOffer) Accept(target SwapTarget, now time.Time) (bool, error) {
	if s.Status == SwapStatusAccepted {
		if s.Target != nil && s.Target.ProposalID == target.ProposalID {
			return true, nil
		}
		return false, ErrSwapTerminal
	}
	if s.Status.IsTerminal() {
		return false, ErrSwapTerminal
	}

	t := target
	s.Target = &t
	s.ProposerID = target.ProposerID
	s.Status = SwapStatusAccepted
	s.UpdatedAt = now
	return true, nil
}

// Cancel brings a non terminal swap to the cancelled status.
func (s *SwapOffer) Cancel(now time.Time) (bool, error) {
	if s.Status == SwapStatusCancelled {
		return true, nil
	}
	if s.Status.IsTerminal() {
		return false, ErrSwapTerminal
	}
	s.Status = SwapStatusCancelled
	s.UpdatedAt = now
	return true, nil
}

// DetachAuction reverts AttachAuction.
func (s *SwapOffer) DetachAuction(auctionID string, now time.Time) {
	if s.AuctionID != auctionID {
		return
	}
	s.AuctionID = ""
	s.AcceptanceStrategy = StrategyFirstMatch
	s.UpdatedAt = now
}

// Clone returns a deep copy of the swap.
func (s *SwapOffer) Clone() *SwapOffer {
	clone := *s
	if s.Target != nil {
		t := *s.Target
		clone.Target = &t
	}
	return &clone
}
