package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/bookswap/internal/core/domain"
)

func TestNewAuction(t *testing.T) {
	auction := newAuction(t, defaultSettings())

	require.NotEmpty(t, auction.ID)
	require.Equal(t, ownerID, auction.OwnerID)
	require.Equal(t, domain.AuctionStatusActive, auction.Status)
	require.False(t, auction.HasWinner())
	require.True(t, auction.IsOpen(now))
}

func TestFailingNewAuction(t *testing.T) {
	noCashSwap, err := domain.NewSwapOffer(ownerID, "b", domain.PaymentPreferences{
		BookingExchangeAllowed: true,
	}, false, now)
	require.NoError(t, err)

	attachedSwap := newSwap(t)
	attachedSwap.AuctionID = "other"

	cancelledSwap := newSwap(t)
	cancelledSwap.Status = domain.SwapStatusCancelled

	pastSettings := defaultSettings()
	pastSettings.EndDate = now.Add(-time.Minute)
	noTypeSettings := defaultSettings()
	noTypeSettings.AllowBookingProposals = false
	noTypeSettings.AllowCashProposals = false
	negativeMinSettings := defaultSettings()
	negativeMinSettings.MinimumCashOffer = decimal.NewFromInt(-1)
	negativeAutoSettings := defaultSettings()
	negativeAutoSettings.AutoSelectAfterHours = -1

	tests := []struct {
		name          string
		swap          *domain.SwapOffer
		actorID       string
		settings      domain.AuctionSettings
		expectedError error
	}{
		{"not_owner", newSwap(t), "someone", defaultSettings(), domain.ErrSwapNotOwner},
		{"swap_not_open", cancelledSwap, ownerID, defaultSettings(), domain.ErrSwapNotOpen},
		{"swap_in_auction", attachedSwap, ownerID, defaultSettings(), domain.ErrSwapAlreadyInAuction},
		{"end_date_in_past", newSwap(t), ownerID, pastSettings, domain.ErrAuctionEndDateInPast},
		{"no_type_allowed", newSwap(t), ownerID, noTypeSettings, domain.ErrAuctionNoProposalTypeAllowed},
		{"negative_minimum", newSwap(t), ownerID, negativeMinSettings, domain.ErrAuctionNegativeMinimumCash},
		{"negative_auto_select", newSwap(t), ownerID, negativeAutoSettings, domain.ErrAuctionNegativeAutoSelect},
		{"cash_not_accepted", noCashSwap, ownerID, defaultSettings(), domain.ErrAuctionCashNotAcceptedBySwap},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			auction, err := domain.NewAuction(tt.swap, tt.actorID, tt.settings, now)
			require.ErrorIs(t, err, tt.expectedError)
			require.Nil(t, auction)
		})
	}
}

func TestSubmitProposal(t *testing.T) {
	t.Run("assigns_increasing_sequence", func(t *testing.T) {
		t.Parallel()

		auction := newAuction(t, defaultSettings())
		first := submit(t, auction, cashProposal(t, "a", 250))
		second := submit(t, auction, bookingProposal(t, "b", "booking-b"))

		require.Equal(t, uint64(1), first.Sequence)
		require.Equal(t, uint64(2), second.Sequence)
		require.Equal(t, auction.ID, first.AuctionID)
		require.Equal(t, auction.SwapID, second.SwapID)
		require.Equal(t, domain.ProposalStatusPending, second.Status)
	})

	t.Run("idempotency_key_returns_existing", func(t *testing.T) {
		t.Parallel()

		auction := newAuction(t, defaultSettings())
		p := cashProposal(t, "a", 250)
		p.IdempotencyKey = "key"
		stored := submit(t, auction, p)

		retry := cashProposal(t, "a", 250)
		retry.IdempotencyKey = "key"
		got, added, err := auction.SubmitProposal(retry, now)
		require.NoError(t, err)
		require.False(t, added)
		require.Equal(t, stored.ID, got.ID)
		require.Len(t, auction.Ledger.Proposals, 1)
	})
}

func TestFailingSubmitProposal(t *testing.T) {
	bookingOnly := defaultSettings()
	bookingOnly.AllowCashProposals = false

	tests := []struct {
		name          string
		settings      domain.AuctionSettings
		proposal      func(t *testing.T) *domain.Proposal
		at            time.Time
		expectedError error
	}{
		{
			name:     "owner_bids",
			settings: defaultSettings(),
			proposal: func(t *testing.T) *domain.Proposal {
				return cashProposal(t, ownerID, 300)
			},
			at:            now,
			expectedError: domain.ErrOwnerCannotPropose,
		},
		{
			name:     "after_end_date",
			settings: defaultSettings(),
			proposal: func(t *testing.T) *domain.Proposal {
				return cashProposal(t, "a", 300)
			},
			at:            endDate,
			expectedError: domain.ErrAuctionNotActive,
		},
		{
			name:     "type_not_allowed",
			settings: bookingOnly,
			proposal: func(t *testing.T) *domain.Proposal {
				return cashProposal(t, "a", 300)
			},
			at:            now,
			expectedError: domain.ErrProposalTypeNotAllowed,
		},
		{
			name:     "below_minimum",
			settings: defaultSettings(),
			proposal: func(t *testing.T) *domain.Proposal {
				return cashProposal(t, "a", 199)
			},
			at:            now,
			expectedError: domain.ErrCashOfferBelowMinimum,
		},
	}

	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			auction := newAuction(t, tt.settings)
			p, added, err := auction.SubmitProposal(tt.proposal(t), tt.at)
			require.ErrorIs(t, err, tt.expectedError)
			require.False(t, added)
			require.Nil(t, p)
			require.Empty(t, auction.Ledger.Proposals)
		})
	}

	t.Run("ended_auction", func(t *testing.T) {
		t.Parallel()

		auction := newAuction(t, defaultSettings())
		require.NoError(t, auction.End(ownerID, now))

		_, _, err := auction.SubmitProposal(cashProposal(t, "a", 300), now)
		require.ErrorIs(t, err, domain.ErrAuctionNotActive)
	})
}

func TestEndAuction(t *testing.T) {
	t.Parallel()

	auction := newAuction(t, defaultSettings())

	err := auction.End("someone", now)
	require.ErrorIs(t, err, domain.ErrNotAuctionOwner)

	require.NoError(t, auction.End(ownerID, now))
	require.True(t, auction.IsEnded())
	require.False(t, auction.HasWinner())
	require.Equal(t, now, auction.EndedAt)

	err = auction.End(ownerID, now)
	require.ErrorIs(t, err, domain.ErrAuctionAlreadyEnded)
}

func TestSelectWinner(t *testing.T) {
	t.Parallel()

	auction := newAuction(t, defaultSettings())
	a := submit(t, auction, cashProposal(t, "a", 250))
	b := submit(t, auction, cashProposal(t, "b", 300))
	c := submit(t, auction, bookingProposal(t, "c", "booking-c"))

	_, err := auction.SelectWinner(ownerID, a.ID, now)
	require.ErrorIs(t, err, domain.ErrAuctionNotEnded)

	require.NoError(t, auction.End(ownerID, now))

	_, err = auction.SelectWinner("someone", a.ID, now)
	require.ErrorIs(t, err, domain.ErrNotAuctionOwner)

	_, err = auction.SelectWinner(ownerID, "unknown", now)
	require.ErrorIs(t, err, domain.ErrProposalNotFound)

	ok, err := auction.SelectWinner(ownerID, a.ID, now)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, a.ID, auction.WinningProposalID)
	require.False(t, auction.AutoSelected)
	require.Equal(t, domain.ProposalStatusAccepted, a.Status)
	require.Equal(t, domain.ProposalStatusRejected, b.Status)
	require.Equal(t, domain.ProposalStatusRejected, c.Status)

	ok, err = auction.SelectWinner(ownerID, a.ID, now)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = auction.SelectWinner(ownerID, b.ID, now)
	require.ErrorIs(t, err, domain.ErrWinnerAlreadySelected)
	require.Equal(t, a.ID, auction.WinningProposalID)
}

func TestSelectWinnerNotPending(t *testing.T) {
	t.Parallel()

	auction := newAuction(t, defaultSettings())
	a := submit(t, auction, cashProposal(t, "a", 250))
	_, err := auction.WithdrawProposal("a", a.ID, now)
	require.NoError(t, err)
	require.NoError(t, auction.End(ownerID, now))

	_, err = auction.SelectWinner(ownerID, a.ID, now)
	require.ErrorIs(t, err, domain.ErrInvalidProposalState)
}

func TestWithdrawProposal(t *testing.T) {
	t.Parallel()

	auction := newAuction(t, defaultSettings())
	a := submit(t, auction, bookingProposal(t, "a", "booking-a"))

	_, err := auction.WithdrawProposal("b", a.ID, now)
	require.ErrorIs(t, err, domain.ErrNotProposer)

	p, err := auction.WithdrawProposal("a", a.ID, now)
	require.NoError(t, err)
	require.Equal(t, domain.ProposalStatusWithdrawn, p.Status)

	// Withdrawn booking proposals do not count as duplicates.
	submit(t, auction, bookingProposal(t, "a", "booking-a"))
}

func TestHandleTimeout(t *testing.T) {
	policy := domain.CashFirstPolicy{}
	afterAutoSelect := endDate.Add(24 * time.Hour)

	t.Run("early_is_noop", func(t *testing.T) {
		t.Parallel()

		auction := newAuction(t, defaultSettings())
		outcome := auction.HandleTimeout(now, policy)
		require.Equal(t, domain.TimeoutNoop, outcome)
		require.False(t, auction.IsEnded())
	})

	t.Run("ends_and_waits_for_owner", func(t *testing.T) {
		t.Parallel()

		auction := newAuction(t, defaultSettings())
		submit(t, auction, cashProposal(t, "a", 250))

		outcome := auction.HandleTimeout(endDate, policy)
		require.Equal(t, domain.TimeoutEnded, outcome)
		require.True(t, auction.IsEnded())
		require.False(t, auction.HasWinner())
		require.False(t, auction.NeedsResolution(endDate.Add(time.Hour)))
		require.True(t, auction.NeedsResolution(afterAutoSelect))

		outcome = auction.HandleTimeout(endDate.Add(time.Hour), policy)
		require.Equal(t, domain.TimeoutNoop, outcome)
	})

	t.Run("auto_selects_highest_cash", func(t *testing.T) {
		t.Parallel()

		auction := newAuction(t, defaultSettings())
		submit(t, auction, cashProposal(t, "a", 200))
		best := submit(t, auction, cashProposal(t, "b", 350))
		submit(t, auction, bookingProposal(t, "c", "booking-x"))

		outcome := auction.HandleTimeout(afterAutoSelect, policy)
		require.Equal(t, domain.TimeoutAutoSelected, outcome)
		require.Equal(t, best.ID, auction.WinningProposalID)
		require.True(t, auction.AutoSelected)
		require.True(t, auction.NeedsSettlement())

		outcome = auction.HandleTimeout(afterAutoSelect.Add(time.Hour), policy)
		require.Equal(t, domain.TimeoutNoop, outcome)
	})

	t.Run("owner_ended_auto_selects_after_end_date_deadline", func(t *testing.T) {
		t.Parallel()

		auction := newAuction(t, defaultSettings())
		p := submit(t, auction, cashProposal(t, "a", 250))
		require.NoError(t, auction.End(ownerID, now))

		outcome := auction.HandleTimeout(endDate.Add(time.Hour), policy)
		require.Equal(t, domain.TimeoutNoop, outcome)
		require.False(t, auction.HasWinner())
		require.True(t, auction.NeedsResolution(afterAutoSelect))

		outcome = auction.HandleTimeout(afterAutoSelect, policy)
		require.Equal(t, domain.TimeoutAutoSelected, outcome)
		require.Equal(t, p.ID, auction.WinningProposalID)
		require.True(t, auction.AutoSelected)
	})

	t.Run("very_late_still_resolves", func(t *testing.T) {
		t.Parallel()

		auction := newAuction(t, defaultSettings())
		p := submit(t, auction, bookingProposal(t, "c", "booking-x"))

		outcome := auction.HandleTimeout(afterAutoSelect.AddDate(1, 0, 0), policy)
		require.Equal(t, domain.TimeoutAutoSelected, outcome)
		require.Equal(t, p.ID, auction.WinningProposalID)
	})

	t.Run("zero_proposals_is_unresolved", func(t *testing.T) {
		t.Parallel()

		auction := newAuction(t, defaultSettings())

		outcome := auction.HandleTimeout(endDate, policy)
		require.Equal(t, domain.TimeoutUnresolved, outcome)
		require.True(t, auction.IsEnded())
		require.True(t, auction.Unresolved)
		require.False(t, auction.HasWinner())
		require.False(t, auction.NeedsResolution(afterAutoSelect))
	})
}

func TestCancelAuction(t *testing.T) {
	t.Parallel()

	auction := newAuction(t, defaultSettings())
	a := submit(t, auction, cashProposal(t, "a", 250))

	ok, err := auction.Cancel(now)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, auction.IsEnded())
	require.True(t, auction.Cancelled)
	require.False(t, auction.HasWinner())
	require.Equal(t, domain.ProposalStatusRejected, a.Status)

	ok, err = auction.Cancel(now)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = auction.SelectWinner(ownerID, a.ID, now)
	require.Error(t, err)
}

func TestCancelAuctionWithWinner(t *testing.T) {
	t.Parallel()

	auction := newAuction(t, defaultSettings())
	a := submit(t, auction, cashProposal(t, "a", 250))
	require.NoError(t, auction.End(ownerID, now))
	_, err := auction.SelectWinner(ownerID, a.ID, now)
	require.NoError(t, err)

	_, err = auction.Cancel(now)
	require.ErrorIs(t, err, domain.ErrWinnerAlreadySelected)
}
