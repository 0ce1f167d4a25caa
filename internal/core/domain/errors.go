package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSwapNotOpen is returned when trying to attach an auction or a
	// proposal to a swap that is not available or pending.
	ErrSwapNotOpen = errors.New("swap is not open to proposals")
	// ErrSwapAlreadyInAuction ...
	ErrSwapAlreadyInAuction = errors.New("swap is already attached to an auction")
	// ErrSwapTerminal is returned when mutating a swap in a terminal status.
	ErrSwapTerminal = errors.New("swap is in a terminal status")
	// ErrSwapNotOwner is returned when the actor is not the owner of the swap.
	ErrSwapNotOwner = errors.New("actor is not the owner of the swap")
	// ErrSwapMissingSourceBooking ...
	ErrSwapMissingSourceBooking = errors.New("swap source booking id must not be empty")
	// ErrSwapMissingOwner ...
	ErrSwapMissingOwner = errors.New("swap owner id must not be empty")
	// ErrSwapNegativeMinimumCash ...
	ErrSwapNegativeMinimumCash = errors.New("swap minimum cash amount must not be negative")
	// ErrSwapNoPaymentAllowed ...
	ErrSwapNoPaymentAllowed = errors.New(
		"swap must allow at least one of booking exchange or cash",
	)

	// ErrAuctionNotActive is returned when submitting to an ended or expired
	// auction.
	ErrAuctionNotActive = errors.New("auction is not active")
	// ErrAuctionAlreadyEnded ...
	ErrAuctionAlreadyEnded = errors.New("auction is already ended")
	// ErrAuctionNotEnded is returned when selecting a winner of an auction
	// that is still active.
	ErrAuctionNotEnded = errors.New("auction must be ended to select a winner")
	// ErrAuctionCancelled ...
	ErrAuctionCancelled = errors.New("auction has been cancelled")
	// ErrAuctionEndDateInPast ...
	ErrAuctionEndDateInPast = errors.New("auction end date must be in the future")
	// ErrAuctionNoProposalTypeAllowed ...
	ErrAuctionNoProposalTypeAllowed = errors.New(
		"auction must allow at least one of booking or cash proposals",
	)
	// ErrAuctionNegativeMinimumCash ...
	ErrAuctionNegativeMinimumCash = errors.New(
		"auction minimum cash offer must not be negative",
	)
	// ErrAuctionNegativeAutoSelect ...
	ErrAuctionNegativeAutoSelect = errors.New(
		"auction auto select delay must not be negative",
	)
	// ErrAuctionCashNotAcceptedBySwap ...
	ErrAuctionCashNotAcceptedBySwap = errors.New(
		"auction cannot allow cash proposals for a swap not accepting cash",
	)
	// ErrAuctionBookingNotAcceptedBySwap ...
	ErrAuctionBookingNotAcceptedBySwap = errors.New(
		"auction cannot allow booking proposals for a swap not accepting booking exchange",
	)
	// ErrNotAuctionOwner ...
	ErrNotAuctionOwner = errors.New("actor is not the owner of the auction")
	// ErrOwnerCannotPropose is returned when the owner bids on its own auction.
	ErrOwnerCannotPropose = errors.New("auction owner cannot submit proposals")

	// ErrProposalTypeNotAllowed ...
	ErrProposalTypeNotAllowed = errors.New("proposal type is not allowed by auction")
	// ErrCashOfferBelowMinimum ...
	ErrCashOfferBelowMinimum = errors.New("cash offer is below auction minimum")
	// ErrDuplicateProposal is returned when the same proposer references the
	// same booking with another pending proposal.
	ErrDuplicateProposal = errors.New(
		"a pending proposal for the same booking already exists",
	)
	// ErrProposalNotFound ...
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrInvalidProposalState is returned when the proposal is not pending.
	ErrInvalidProposalState = errors.New("proposal must be pending")
	// ErrNotProposer ...
	ErrNotProposer = errors.New("actor is not the proposer")
	// ErrWinnerAlreadySelected ...
	ErrWinnerAlreadySelected = errors.New("auction winner is already selected")
	// ErrProposalMissingBody ...
	ErrProposalMissingBody = errors.New("proposal must be either booking or cash")
	// ErrProposalMissingBooking ...
	ErrProposalMissingBooking = errors.New("booking proposal must reference a booking")
	// ErrProposalInvalidAmount ...
	ErrProposalInvalidAmount = errors.New("cash proposal amount must be positive")
	// ErrProposalMissingCurrency ...
	ErrProposalMissingCurrency = errors.New("cash proposal currency must not be empty")
	// ErrProposalMissingPaymentMethod ...
	ErrProposalMissingPaymentMethod = errors.New(
		"cash proposal payment method must not be empty",
	)

	// ErrInvalidListing is returned when a listing lacks comparable
	// date, location or value data.
	ErrInvalidListing = errors.New("listing lacks comparable data")
)

// AccessDeniedError names the side of a two-sided request that the user is
// not allowed to view.
type AccessDeniedError struct {
	Side   string
	SwapID string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied to %s swap %s", e.Side, e.SwapID)
}
