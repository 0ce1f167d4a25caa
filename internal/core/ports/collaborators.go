package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/bookswap/internal/core/domain"
)

// ErrBookingNotFound is returned by a BookingService for unknown bookings.
var ErrBookingNotFound = errors.New("booking not found")

// Booking is a reservation owned by a user of the marketplace.
type Booking struct {
	ID      string
	OwnerID string
	Listing domain.ListingProfile
}

// BookingService looks up bookings managed outside of this daemon.
type BookingService interface {
	GetBooking(ctx context.Context, bookingID string) (*Booking, error)
}

// EscrowRequest describes the funds to hold for a cash proposal.
type EscrowRequest struct {
	ProposalID      string
	AuctionID       string
	PayerID         string
	PayeeID         string
	Amount          decimal.Decimal
	Currency        string
	PaymentMethodID string
}

// EscrowService moves funds held for cash proposals. Every operation is
// keyed by proposal id and must be idempotent.
type EscrowService interface {
	// CreateEscrow holds the funds and returns the escrow id.
	CreateEscrow(ctx context.Context, req EscrowRequest) (string, error)
	// ReleaseEscrow transfers the held funds to the payee.
	ReleaseEscrow(ctx context.Context, proposalID string) error
	// RefundEscrow gives the held funds back to the payer.
	RefundEscrow(ctx context.Context, proposalID string) error
}
