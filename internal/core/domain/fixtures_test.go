package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/bookswap/internal/core/domain"
)

var (
	ownerID   = "owner"
	now       = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	endDate   = now.Add(48 * time.Hour)
	cashPrefs = domain.PaymentPreferences{
		BookingExchangeAllowed: true,
		CashAllowed:            true,
		MinimumCashAmount:      decimal.NewFromInt(100),
	}
)

func newSwap(t *testing.T) *domain.SwapOffer {
	swap, err := domain.NewSwapOffer(ownerID, "booking-owner", cashPrefs, true, now)
	require.NoError(t, err)
	return swap
}

func defaultSettings() domain.AuctionSettings {
	return domain.AuctionSettings{
		EndDate:               endDate,
		AllowBookingProposals: true,
		AllowCashProposals:    true,
		MinimumCashOffer:      decimal.NewFromInt(200),
		AutoSelectAfterHours:  24,
	}
}

func newAuction(t *testing.T, settings domain.AuctionSettings) *domain.Auction {
	auction, err := domain.NewAuction(newSwap(t), ownerID, settings, now)
	require.NoError(t, err)
	return auction
}

func cashProposal(t *testing.T, proposerID string, amount int64) *domain.Proposal {
	p, err := domain.NewProposal(proposerID, domain.CashProposal{
		Amount:          decimal.NewFromInt(amount),
		Currency:        "EUR",
		PaymentMethodID: "pm-" + proposerID,
		EscrowAgreed:    true,
	}, "", nil, "", now)
	require.NoError(t, err)
	return p
}

func bookingProposal(t *testing.T, proposerID, bookingID string) *domain.Proposal {
	p, err := domain.NewProposal(
		proposerID, domain.BookingProposal{BookingID: bookingID}, "", nil, "", now,
	)
	require.NoError(t, err)
	return p
}

func submit(t *testing.T, a *domain.Auction, p *domain.Proposal) *domain.Proposal {
	stored, added, err := a.SubmitProposal(p, now)
	require.NoError(t, err)
	require.True(t, added)
	return stored
}
