package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/bookswap/internal/core/domain"
)

func TestNewSwapOffer(t *testing.T) {
	t.Parallel()

	swap, err := domain.NewSwapOffer(ownerID, "booking", cashPrefs, false, now)
	require.NoError(t, err)
	require.Equal(t, domain.SwapStatusAvailable, swap.Status)
	require.Equal(t, domain.StrategyFirstMatch, swap.AcceptanceStrategy)
	require.Equal(t, ownerID, swap.ProposerID)

	listed, err := domain.NewSwapOffer(ownerID, "booking", cashPrefs, true, now)
	require.NoError(t, err)
	require.Equal(t, domain.SwapStatusPending, listed.Status)
}

func TestFailingNewSwapOffer(t *testing.T) {
	tests := []struct {
		name          string
		ownerID       string
		bookingID     string
		prefs         domain.PaymentPreferences
		expectedError error
	}{
		{"missing_owner", "", "b", cashPrefs, domain.ErrSwapMissingOwner},
		{"missing_booking", ownerID, "", cashPrefs, domain.ErrSwapMissingSourceBooking},
		{"nothing_allowed", ownerID, "b", domain.PaymentPreferences{}, domain.ErrSwapNoPaymentAllowed},
		{
			"negative_minimum", ownerID, "b",
			domain.PaymentPreferences{CashAllowed: true, MinimumCashAmount: decimal.NewFromInt(-5)},
			domain.ErrSwapNegativeMinimumCash,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			swap, err := domain.NewSwapOffer(tt.ownerID, tt.bookingID, tt.prefs, false, now)
			require.ErrorIs(t, err, tt.expectedError)
			require.Nil(t, swap)
		})
	}
}

func TestSwapAccept(t *testing.T) {
	t.Parallel()

	swap := newSwap(t)
	require.NoError(t, swap.AttachAuction("auction", now))
	require.Equal(t, domain.StrategyAuction, swap.AcceptanceStrategy)

	target := domain.SwapTarget{ProposalID: "p1", ProposerID: "b", CashAmount: decimal.NewFromInt(300)}
	ok, err := swap.Accept(target, now)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.SwapStatusAccepted, swap.Status)
	require.Equal(t, "b", swap.ProposerID)

	ok, err = swap.Accept(target, now)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = swap.Accept(domain.SwapTarget{ProposalID: "p2"}, now)
	require.ErrorIs(t, err, domain.ErrSwapTerminal)

	_, err = swap.Cancel(now)
	require.ErrorIs(t, err, domain.ErrSwapTerminal)
}

func TestSwapDowngradeAndCancel(t *testing.T) {
	t.Parallel()

	swap := newSwap(t)
	require.NoError(t, swap.AttachAuction("auction", now))
	require.ErrorIs(t, swap.AttachAuction("another", now), domain.ErrSwapAlreadyInAuction)

	swap.DowngradeToFirstMatch(now)
	require.Equal(t, domain.StrategyFirstMatch, swap.AcceptanceStrategy)
	require.True(t, swap.Status.IsOpen())

	ok, err := swap.Cancel(now)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, domain.SwapStatusCancelled, swap.Status)
	require.ErrorIs(t, swap.AttachAuction("auction", now), domain.ErrSwapNotOpen)
}
