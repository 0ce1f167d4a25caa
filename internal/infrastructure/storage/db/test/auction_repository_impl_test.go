package db_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/bookswap/internal/core/domain"
)

func TestAuctionRepositoryImplementations(t *testing.T) {
	repositories := createRepoManagers(t)

	for i := range repositories {
		repo := repositories[i]

		t.Run(repo.Name, func(t *testing.T) {
			t.Parallel()

			t.Run("testAddAndGetAuction", func(t *testing.T) {
				t.Parallel()
				testAddAndGetAuction(t, repo)
			})

			t.Run("testUpdateAuction", func(t *testing.T) {
				t.Parallel()
				testUpdateAuction(t, repo)
			})

			t.Run("testUpdateAuctionRollback", func(t *testing.T) {
				t.Parallel()
				testUpdateAuctionRollback(t, repo)
			})

			t.Run("testConcurrentProposals", func(t *testing.T) {
				t.Parallel()
				testConcurrentProposals(t, repo)
			})

			t.Run("testGetAuctionsToResolve", func(t *testing.T) {
				t.Parallel()
				testGetAuctionsToResolve(t, repo)
			})
		})
	}
}

// Pagination is tested apart because it needs a store with a known set of
// auctions.
func TestGetAllAuctions(t *testing.T) {
	repositories := createRepoManagers(t)

	for i := range repositories {
		repo := repositories[i]
		if repo.Name == "postgres" {
			continue
		}

		t.Run(repo.Name, func(t *testing.T) {
			ids := make([]string, 0, 5)
			for i := 0; i < 5; i++ {
				auction := makeRandomAuction(t, repo, now.Add(time.Hour))
				auction.CreatedAt = now.Add(time.Duration(i) * time.Minute)
				require.NoError(t, repo.AuctionRepository().AddAuction(ctx, auction))
				ids = append(ids, auction.ID)
			}

			all, err := repo.AuctionRepository().GetAllAuctions(ctx, nil)
			require.NoError(t, err)
			require.Len(t, all, 5)
			for i, a := range all {
				require.Equal(t, ids[i], a.ID)
			}

			page := domain.NewPage(2, 2)
			paged, err := repo.AuctionRepository().GetAllAuctions(ctx, &page)
			require.NoError(t, err)
			require.Len(t, paged, 2)
			require.Equal(t, ids[2], paged[0].ID)
			require.Equal(t, ids[3], paged[1].ID)

			page = domain.NewPage(4, 2)
			paged, err = repo.AuctionRepository().GetAllAuctions(ctx, &page)
			require.NoError(t, err)
			require.Empty(t, paged)
		})
	}
}

func testAddAndGetAuction(t *testing.T, repo repoManager) {
	auction := makeRandomAuction(t, repo, now.Add(48*time.Hour))
	require.NoError(t, repo.AuctionRepository().AddAuction(ctx, auction))

	err := repo.AuctionRepository().AddAuction(ctx, auction)
	require.ErrorIs(t, err, domain.ErrAuctionAlreadyExists)

	got, err := repo.AuctionRepository().GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	require.Equal(t, auction.ID, got.ID)
	require.Equal(t, auction.SwapID, got.SwapID)
	require.Equal(t, auction.OwnerID, got.OwnerID)
	require.Equal(t, domain.AuctionStatusActive, got.Status)
	require.True(t, auction.Settings.EndDate.Equal(got.Settings.EndDate))
	require.True(t, auction.Settings.MinimumCashOffer.Equal(got.Settings.MinimumCashOffer))
	require.Equal(t, 24, got.Settings.AutoSelectAfterHours)
	require.Empty(t, got.Ledger.Proposals)

	_, err = repo.AuctionRepository().GetAuction(ctx, randomID())
	require.ErrorIs(t, err, domain.ErrAuctionNotFound)
}

func testUpdateAuction(t *testing.T, repo repoManager) {
	auction := makeRandomAuction(t, repo, now.Add(48*time.Hour))
	require.NoError(t, repo.AuctionRepository().AddAuction(ctx, auction))

	cash := makeCashProposal(t, 250)
	booking := makeBookingProposal(t, randomID())
	err := repo.AuctionRepository().UpdateAuction(
		ctx, auction.ID, func(a *domain.Auction) (*domain.Auction, error) {
			for _, p := range []*domain.Proposal{cash, booking} {
				if _, _, err := a.SubmitProposal(p, now); err != nil {
					return nil, err
				}
			}
			return a, nil
		},
	)
	require.NoError(t, err)

	got, err := repo.AuctionRepository().GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	require.Len(t, got.Ledger.Proposals, 2)
	require.Equal(t, uint64(2), got.Ledger.LastSequence)

	gotCash := getProposal(t, got, cash.ID)
	require.Equal(t, uint64(1), gotCash.Sequence)
	require.Equal(t, domain.ProposalStatusPending, gotCash.Status)
	require.Equal(t, cash.IdempotencyKey, gotCash.IdempotencyKey)
	require.Equal(t, []string{"flexible check-in"}, gotCash.Conditions)
	body, ok := gotCash.Cash()
	require.True(t, ok)
	require.Equal(t, "250", body.Amount.String())
	require.True(t, body.EscrowAgreed)

	gotBooking := getProposal(t, got, booking.ID)
	require.Equal(t, uint64(2), gotBooking.Sequence)
	_, ok = gotBooking.Booking()
	require.True(t, ok)

	err = repo.AuctionRepository().UpdateAuction(
		ctx, auction.ID, func(a *domain.Auction) (*domain.Auction, error) {
			if err := a.End(a.OwnerID, now); err != nil {
				return nil, err
			}
			if _, err := a.SelectWinner(a.OwnerID, cash.ID, now); err != nil {
				return nil, err
			}
			return a, nil
		},
	)
	require.NoError(t, err)

	got, err = repo.AuctionRepository().GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	require.Equal(t, domain.AuctionStatusEnded, got.Status)
	require.Equal(t, cash.ID, got.WinningProposalID)
	require.False(t, got.EndedAt.IsZero())
	require.Equal(t, domain.ProposalStatusAccepted, getProposal(t, got, cash.ID).Status)
	require.Equal(t, domain.ProposalStatusRejected, getProposal(t, got, booking.ID).Status)

	err = repo.AuctionRepository().UpdateAuction(
		ctx, randomID(), func(a *domain.Auction) (*domain.Auction, error) {
			return a, nil
		},
	)
	require.ErrorIs(t, err, domain.ErrAuctionNotFound)
}

func testUpdateAuctionRollback(t *testing.T, repo repoManager) {
	auction := makeRandomAuction(t, repo, now.Add(48*time.Hour))
	require.NoError(t, repo.AuctionRepository().AddAuction(ctx, auction))

	err := repo.AuctionRepository().UpdateAuction(
		ctx, auction.ID, func(a *domain.Auction) (*domain.Auction, error) {
			if _, _, err := a.SubmitProposal(makeCashProposal(t, 300), now); err != nil {
				return nil, err
			}
			return nil, domain.ErrAuctionNotActive
		},
	)
	require.ErrorIs(t, err, domain.ErrAuctionNotActive)

	got, err := repo.AuctionRepository().GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	require.Empty(t, got.Ledger.Proposals)
	require.Zero(t, got.Ledger.LastSequence)
}

func testConcurrentProposals(t *testing.T, repo repoManager) {
	auction := makeRandomAuction(t, repo, now.Add(48*time.Hour))
	require.NoError(t, repo.AuctionRepository().AddAuction(ctx, auction))

	const count = 20
	wg := &sync.WaitGroup{}
	errs := make(chan error, count)
	for i := 0; i < count; i++ {
		proposal := makeCashProposal(t, int64(200+i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.AuctionRepository().UpdateAuction(
				ctx, auction.ID, func(a *domain.Auction) (*domain.Auction, error) {
					_, _, err := a.SubmitProposal(proposal, now)
					return a, err
				},
			)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.AuctionRepository().GetAuction(ctx, auction.ID)
	require.NoError(t, err)
	require.Len(t, got.Ledger.Proposals, count)
	require.Equal(t, uint64(count), got.Ledger.LastSequence)

	seen := make(map[uint64]bool)
	for _, p := range got.Ledger.Proposals {
		require.False(t, seen[p.Sequence], "duplicate sequence %d", p.Sequence)
		seen[p.Sequence] = true
	}
}

func testGetAuctionsToResolve(t *testing.T, repo repoManager) {
	due := makeRandomAuction(t, repo, now.Add(time.Hour))
	require.NoError(t, repo.AuctionRepository().AddAuction(ctx, due))

	notDue := makeRandomAuction(t, repo, now.Add(72*time.Hour))
	require.NoError(t, repo.AuctionRepository().AddAuction(ctx, notDue))

	later := now.Add(2 * time.Hour)
	auctions, err := repo.AuctionRepository().GetAuctionsToResolve(ctx, later)
	require.NoError(t, err)
	require.True(t, containsAuction(auctions, due.ID))
	require.False(t, containsAuction(auctions, notDue.ID))

	err = repo.AuctionRepository().UpdateAuction(
		ctx, due.ID, func(a *domain.Auction) (*domain.Auction, error) {
			a.HandleTimeout(later, domain.CashFirstPolicy{})
			a.MarkSettled(later)
			return a, nil
		},
	)
	require.NoError(t, err)

	auctions, err = repo.AuctionRepository().GetAuctionsToResolve(ctx, later)
	require.NoError(t, err)
	require.False(t, containsAuction(auctions, due.ID))
}

func containsAuction(auctions []*domain.Auction, id string) bool {
	for _, a := range auctions {
		if a.ID == id {
			return true
		}
	}
	return false
}
