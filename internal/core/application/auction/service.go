package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/bookswap/internal/core/application"
	"github.com/tdex-network/bookswap/internal/core/application/pubsub"
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/tdex-network/bookswap/internal/core/ports"
	"github.com/tdex-network/bookswap/pkg/metrics"
)

// Service drives auctions from creation to resolution. Every mutation of an
// auction goes through AuctionRepository.UpdateAuction, which serializes
// concurrent requests for the same auction.
type Service struct {
	repoManager ports.RepoManager
	bookings    ports.BookingService
	escrow      ports.EscrowService
	pubsub      *pubsub.Service
	policy      domain.WinnerSelectionPolicy
	guard       domain.SwapAccessGuard
	now         func() time.Time
}

// NewService returns the auction service. A nil policy defaults to
// domain.CashFirstPolicy and a nil clock to time.Now.
func NewService(
	repoManager ports.RepoManager,
	bookingSvc ports.BookingService,
	escrowSvc ports.EscrowService,
	pubsubSvc *pubsub.Service,
	policy domain.WinnerSelectionPolicy,
	clock func() time.Time,
) (*Service, error) {
	if repoManager == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if bookingSvc == nil {
		return nil, fmt.Errorf("missing booking service")
	}
	if escrowSvc == nil {
		return nil, fmt.Errorf("missing escrow service")
	}
	if pubsubSvc == nil {
		return nil, fmt.Errorf("missing pubsub service")
	}
	if policy == nil {
		policy = domain.CashFirstPolicy{}
	}
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		repoManager: repoManager,
		bookings:    bookingSvc,
		escrow:      escrowSvc,
		pubsub:      pubsubSvc,
		policy:      policy,
		now:         clock,
	}, nil
}

// RegisterSwap publishes a new swap offer for a booking of the owner.
func (s *Service) RegisterSwap(
	ctx context.Context, req RegisterSwapRequest,
) (*domain.SwapOffer, error) {
	if req.OwnerID == "" {
		return nil, application.WrapError(application.ErrUnauthenticated, nil)
	}
	if err := s.checkBookingOwnership(
		ctx, req.SourceBookingID, req.OwnerID,
	); err != nil {
		return nil, err
	}

	swap, err := domain.NewSwapOffer(
		req.OwnerID, req.SourceBookingID, req.Payment, req.Listed, s.now(),
	)
	if err != nil {
		return nil, application.WrapError(err, nil)
	}
	if err := s.repoManager.SwapRepository().AddSwap(ctx, swap); err != nil {
		return nil, application.WrapError(err, nil)
	}

	log.Debugf("registered swap %s for booking %s", swap.ID, swap.SourceBookingID)
	return swap, nil
}

// GetSwap returns the swap if the user can view it.
func (s *Service) GetSwap(
	ctx context.Context, swapID, userID string,
) (*domain.SwapOffer, error) {
	swap, err := s.repoManager.SwapRepository().GetSwap(ctx, swapID)
	if err != nil {
		return nil, application.WrapError(err, nil)
	}
	if !s.guard.CanView(swap, userID) {
		return nil, application.NewForbiddenError(
			&domain.AccessDeniedError{Side: domain.SideSource, SwapID: swapID},
		)
	}
	return swap, nil
}

// CreateAuction attaches a new auction to a swap of the actor. Attaching is
// a conditional update of the swap, so only one auction can ever win it.
func (s *Service) CreateAuction(
	ctx context.Context, req CreateAuctionRequest,
) (*domain.Auction, error) {
	if req.ActorID == "" {
		return nil, application.WrapError(application.ErrUnauthenticated, nil)
	}

	now := s.now()
	var auction *domain.Auction
	var current *domain.SwapOffer
	swapRepo := s.repoManager.SwapRepository()

	if err := swapRepo.UpdateSwap(
		ctx, req.SwapID, func(swap *domain.SwapOffer) (*domain.SwapOffer, error) {
			current = swap.Clone()
			a, err := domain.NewAuction(swap, req.ActorID, req.Settings, now)
			if err != nil {
				return nil, err
			}
			if err := swap.AttachAuction(a.ID, now); err != nil {
				return nil, err
			}
			auction = a
			return swap, nil
		},
	); err != nil {
		return nil, application.WrapError(err, current)
	}

	if err := s.repoManager.AuctionRepository().AddAuction(ctx, auction); err != nil {
		if rollbackErr := swapRepo.UpdateSwap(
			ctx, req.SwapID, func(swap *domain.SwapOffer) (*domain.SwapOffer, error) {
				swap.DetachAuction(auction.ID, s.now())
				return swap, nil
			},
		); rollbackErr != nil {
			log.WithError(rollbackErr).Warnf(
				"failed to detach auction %s from swap %s", auction.ID, req.SwapID,
			)
		}
		return nil, application.WrapError(err, nil)
	}

	log.Infof("created auction %s for swap %s", auction.ID, auction.SwapID)
	s.pubsub.PublishAuctionCreatedEvent(*auction)
	return auction, nil
}

// SubmitProposal appends a proposal to an active auction. Booking proposals
// must reference a booking of the proposer. Cash proposals agreeing to
// escrow get their funds held before being appended and refunded if the
// append fails. Retrying with the same idempotency key returns the stored
// proposal.
func (s *Service) SubmitProposal(
	ctx context.Context, req SubmitProposalRequest,
) (*domain.Proposal, error) {
	if req.ProposerID == "" {
		return nil, application.WrapError(application.ErrUnauthenticated, nil)
	}

	now := s.now()
	proposal, err := domain.NewProposal(
		req.ProposerID, req.Body, req.Message, req.Conditions,
		req.IdempotencyKey, now,
	)
	if err != nil {
		return nil, application.WrapError(err, nil)
	}

	auctionRepo := s.repoManager.AuctionRepository()
	auction, err := auctionRepo.GetAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, application.WrapError(err, nil)
	}
	if existing := auction.Ledger.FindByIdempotencyKey(
		req.ProposerID, req.IdempotencyKey,
	); existing != nil {
		return existing, nil
	}
	if err := auction.ValidateProposal(proposal, now); err != nil {
		return nil, application.WrapError(err, auction)
	}

	if booking, ok := proposal.Booking(); ok {
		if err := s.checkBookingOwnership(
			ctx, booking.BookingID, req.ProposerID,
		); err != nil {
			return nil, err
		}
	}
	if cash, ok := proposal.Cash(); ok && cash.EscrowAgreed {
		escrowID, err := s.escrow.CreateEscrow(ctx, ports.EscrowRequest{
			ProposalID:      proposal.ID,
			AuctionID:       auction.ID,
			PayerID:         proposal.ProposerID,
			PayeeID:         auction.OwnerID,
			Amount:          cash.Amount,
			Currency:        cash.Currency,
			PaymentMethodID: cash.PaymentMethodID,
		})
		if err != nil {
			metrics.EscrowFailures.WithLabelValues("create").Inc()
			return nil, application.NewIntegrationError(
				fmt.Errorf("failed to create escrow: %w", err),
			)
		}
		proposal.EscrowID = escrowID
	}

	var stored *domain.Proposal
	var added bool
	if err := auctionRepo.UpdateAuction(
		ctx, req.AuctionID, func(a *domain.Auction) (*domain.Auction, error) {
			auction = a
			p, ok, err := a.SubmitProposal(proposal, now)
			if err != nil {
				return nil, err
			}
			stored, added = p, ok
			return a, nil
		},
	); err != nil {
		s.refundEscrow(ctx, proposal)
		return nil, application.WrapError(err, auction)
	}

	if !added {
		s.refundEscrow(ctx, proposal)
		return stored, nil
	}

	metrics.ProposalsSubmitted.WithLabelValues(string(stored.Type())).Inc()
	log.Debugf(
		"proposal %s (#%d) submitted to auction %s",
		stored.ID, stored.Sequence, auction.ID,
	)
	s.pubsub.PublishProposalSubmittedEvent(*auction, *stored)
	return stored, nil
}

// WithdrawProposal withdraws a pending proposal of the actor and refunds its
// escrow. Withdrawing again is a no-op that retries the refund.
func (s *Service) WithdrawProposal(
	ctx context.Context, auctionID, actorID, proposalID string,
) (*domain.Proposal, error) {
	if actorID == "" {
		return nil, application.WrapError(application.ErrUnauthenticated, nil)
	}

	var auction *domain.Auction
	var withdrawn *domain.Proposal
	if err := s.repoManager.AuctionRepository().UpdateAuction(
		ctx, auctionID, func(a *domain.Auction) (*domain.Auction, error) {
			auction = a
			p, err := a.WithdrawProposal(actorID, proposalID, s.now())
			if err != nil {
				return nil, err
			}
			withdrawn = p
			return a, nil
		},
	); err != nil {
		return nil, application.WrapError(err, auction)
	}

	if withdrawn.HasEscrow() {
		if err := s.escrow.RefundEscrow(ctx, withdrawn.ID); err != nil {
			metrics.EscrowFailures.WithLabelValues("refund").Inc()
			return nil, application.NewIntegrationError(
				fmt.Errorf("failed to refund escrow: %w", err),
			)
		}
	}

	s.pubsub.PublishProposalWithdrawnEvent(*auction, *withdrawn)
	return withdrawn, nil
}

// EndAuction ends an active auction on behalf of its owner, without winner.
func (s *Service) EndAuction(
	ctx context.Context, auctionID, actorID string,
) (*domain.Auction, error) {
	if actorID == "" {
		return nil, application.WrapError(application.ErrUnauthenticated, nil)
	}

	var auction *domain.Auction
	if err := s.repoManager.AuctionRepository().UpdateAuction(
		ctx, auctionID, func(a *domain.Auction) (*domain.Auction, error) {
			auction = a
			if err := a.End(actorID, s.now()); err != nil {
				return nil, err
			}
			return a, nil
		},
	); err != nil {
		return nil, application.WrapError(err, auction)
	}

	metrics.AuctionsResolved.WithLabelValues("ended_by_owner").Inc()
	s.pubsub.PublishAuctionEndedEvent(*auction)
	return auction, nil
}

// SelectWinner assigns the winner of an ended auction on behalf of its owner
// and settles the swap and the escrows. Selecting the same proposal again
// only retries an unfinished settlement.
func (s *Service) SelectWinner(
	ctx context.Context, auctionID, actorID, proposalID string,
) (*domain.Auction, error) {
	if actorID == "" {
		return nil, application.WrapError(application.ErrUnauthenticated, nil)
	}

	var auction *domain.Auction
	var selected bool
	if err := s.repoManager.AuctionRepository().UpdateAuction(
		ctx, auctionID, func(a *domain.Auction) (*domain.Auction, error) {
			auction = a
			ok, err := a.SelectWinner(actorID, proposalID, s.now())
			if err != nil {
				return nil, err
			}
			selected = ok
			return a, nil
		},
	); err != nil {
		return nil, application.WrapError(err, auction)
	}

	if selected {
		metrics.AuctionsResolved.WithLabelValues("winner_selected").Inc()
		log.Infof("proposal %s selected as winner of auction %s", proposalID, auctionID)
		s.pubsub.PublishWinnerSelectedEvent(*auction, *auction.Winner())
	}
	if auction.NeedsSettlement() {
		if err := s.settle(ctx, auction); err != nil {
			return nil, err
		}
	}
	return auction, nil
}

// HandleTimeout resolves the auction according to the wall clock, see
// domain.Auction.HandleTimeout, and settles its outcome. Invoking it early or
// more than once is harmless.
func (s *Service) HandleTimeout(
	ctx context.Context, auctionID string,
) (*ResolvedAuction, error) {
	var auction *domain.Auction
	var outcome domain.TimeoutOutcome
	if err := s.repoManager.AuctionRepository().UpdateAuction(
		ctx, auctionID, func(a *domain.Auction) (*domain.Auction, error) {
			auction = a
			outcome = a.HandleTimeout(s.now(), s.policy)
			return a, nil
		},
	); err != nil {
		return nil, application.WrapError(err, auction)
	}

	switch outcome {
	case domain.TimeoutEnded:
		s.pubsub.PublishAuctionEndedEvent(*auction)
	case domain.TimeoutAutoSelected:
		log.Infof(
			"proposal %s auto selected as winner of auction %s",
			auction.WinningProposalID, auction.ID,
		)
		s.pubsub.PublishWinnerSelectedEvent(*auction, *auction.Winner())
	case domain.TimeoutUnresolved:
		log.Infof("auction %s ended without proposals", auction.ID)
		s.pubsub.PublishAuctionUnresolvedEvent(*auction)
	}
	if outcome != domain.TimeoutNoop {
		metrics.AuctionsResolved.WithLabelValues(string(outcome)).Inc()
	}

	if auction.NeedsSettlement() {
		if err := s.settle(ctx, auction); err != nil {
			return nil, err
		}
	}

	return &ResolvedAuction{
		AuctionID:         auction.ID,
		SwapID:            auction.SwapID,
		Outcome:           outcome,
		WinningProposalID: auction.WinningProposalID,
		AutoSelected:      auction.AutoSelected,
	}, nil
}

// CancelSwap cancels a swap on behalf of its owner or proposer. An attached
// auction is ended without winner and every held escrow is refunded. It
// fails with a conflict once a winner was selected.
func (s *Service) CancelSwap(
	ctx context.Context, swapID, actorID string,
) (*domain.SwapOffer, error) {
	if actorID == "" {
		return nil, application.WrapError(application.ErrUnauthenticated, nil)
	}

	swapRepo := s.repoManager.SwapRepository()
	swap, err := swapRepo.GetSwap(ctx, swapID)
	if err != nil {
		return nil, application.WrapError(err, nil)
	}
	if !s.guard.CanMutate(swap, actorID) {
		return nil, application.NewForbiddenError(application.ErrNotSwapParty)
	}
	alreadyCancelled := swap.Status == domain.SwapStatusCancelled
	if swap.Status.IsTerminal() && !alreadyCancelled {
		return nil, application.NewConflictError(domain.ErrSwapTerminal, swap)
	}

	var auction *domain.Auction
	if swap.AuctionID != "" {
		if err := s.repoManager.AuctionRepository().UpdateAuction(
			ctx, swap.AuctionID, func(a *domain.Auction) (*domain.Auction, error) {
				auction = a
				if _, err := a.Cancel(s.now()); err != nil {
					return nil, err
				}
				return a, nil
			},
		); err != nil {
			return nil, application.WrapError(err, auction)
		}
	}

	if err := swapRepo.UpdateSwap(
		ctx, swapID, func(sw *domain.SwapOffer) (*domain.SwapOffer, error) {
			if _, err := sw.Cancel(s.now()); err != nil {
				return nil, err
			}
			swap = sw
			return sw, nil
		},
	); err != nil {
		return nil, application.WrapError(err, swap)
	}

	// A cancelled swap whose refunds failed is settled again on retry.
	settled := false
	if auction != nil && auction.NeedsSettlement() {
		if err := s.settle(ctx, auction); err != nil {
			return nil, err
		}
		settled = true
	}
	if alreadyCancelled && !settled {
		return swap, nil
	}

	log.Infof("swap %s cancelled by %s", swapID, actorID)
	s.pubsub.PublishSwapCancelledEvent(*swap)
	return swap, nil
}

// GetAuction returns the auction. Proposals of other users are hidden to
// anybody but the owner.
func (s *Service) GetAuction(
	ctx context.Context, auctionID, userID string,
) (*domain.Auction, error) {
	if userID == "" {
		return nil, application.WrapError(application.ErrUnauthenticated, nil)
	}
	auction, err := s.repoManager.AuctionRepository().GetAuction(ctx, auctionID)
	if err != nil {
		return nil, application.WrapError(err, nil)
	}
	if !auction.IsOwner(userID) {
		auction.Ledger.Proposals = auction.Ledger.ByProposer(userID)
	}
	return auction, nil
}

// ListProposals returns the proposals of the auction visible to the user,
// in ranking order.
func (s *Service) ListProposals(
	ctx context.Context, auctionID, userID string,
) (*ProposalList, error) {
	auction, err := s.GetAuction(ctx, auctionID, userID)
	if err != nil {
		return nil, err
	}
	return &ProposalList{
		Auction:   auction,
		Proposals: auction.Ledger.Rank(auction.Settings),
	}, nil
}

// ListAuctions returns a page of all auctions.
func (s *Service) ListAuctions(
	ctx context.Context, page *domain.Page,
) ([]*domain.Auction, error) {
	auctions, err := s.repoManager.AuctionRepository().GetAllAuctions(ctx, page)
	if err != nil {
		return nil, application.WrapError(err, nil)
	}
	return auctions, nil
}

// settle makes the swap and the escrows reflect the outcome of the auction,
// then marks it as settled. Every step is idempotent so that a failed
// settlement is retried by the next sweep.
func (s *Service) settle(ctx context.Context, auction *domain.Auction) error {
	now := s.now()
	swapRepo := s.repoManager.SwapRepository()

	switch {
	case auction.HasWinner():
		winner := auction.Winner()
		if err := swapRepo.UpdateSwap(
			ctx, auction.SwapID, func(sw *domain.SwapOffer) (*domain.SwapOffer, error) {
				if _, err := sw.Accept(winner.Target(), now); err != nil {
					return nil, err
				}
				return sw, nil
			},
		); err != nil {
			return application.WrapError(err, auction)
		}
		if winner.HasEscrow() {
			if err := s.escrow.ReleaseEscrow(ctx, winner.ID); err != nil {
				metrics.EscrowFailures.WithLabelValues("release").Inc()
				return application.NewIntegrationError(
					fmt.Errorf("failed to release escrow: %w", err),
				)
			}
		}
	case auction.Unresolved:
		if err := swapRepo.UpdateSwap(
			ctx, auction.SwapID, func(sw *domain.SwapOffer) (*domain.SwapOffer, error) {
				sw.DowngradeToFirstMatch(now)
				return sw, nil
			},
		); err != nil {
			return application.WrapError(err, auction)
		}
	case auction.Cancelled:
		if err := swapRepo.UpdateSwap(
			ctx, auction.SwapID, func(sw *domain.SwapOffer) (*domain.SwapOffer, error) {
				if _, err := sw.Cancel(now); err != nil {
					return nil, err
				}
				return sw, nil
			},
		); err != nil {
			return application.WrapError(err, auction)
		}
	}

	for _, p := range auction.Ledger.Proposals {
		if !p.HasEscrow() || p.ID == auction.WinningProposalID {
			continue
		}
		if err := s.escrow.RefundEscrow(ctx, p.ID); err != nil {
			metrics.EscrowFailures.WithLabelValues("refund").Inc()
			return application.NewIntegrationError(
				fmt.Errorf("failed to refund escrow of proposal %s: %w", p.ID, err),
			)
		}
	}

	if err := s.repoManager.AuctionRepository().UpdateAuction(
		ctx, auction.ID, func(a *domain.Auction) (*domain.Auction, error) {
			a.MarkSettled(now)
			return a, nil
		},
	); err != nil {
		return application.WrapError(err, auction)
	}
	auction.MarkSettled(now)
	return nil
}

func (s *Service) checkBookingOwnership(
	ctx context.Context, bookingID, userID string,
) error {
	if bookingID == "" {
		return application.NewValidationError(domain.ErrProposalMissingBooking)
	}
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ports.ErrBookingNotFound) {
			return application.NewNotFoundError(err)
		}
		return application.NewIntegrationError(
			fmt.Errorf("failed to look up booking %s: %w", bookingID, err),
		)
	}
	if booking.OwnerID != userID {
		return application.NewForbiddenError(application.ErrBookingNotOwned)
	}
	return nil
}

func (s *Service) refundEscrow(ctx context.Context, proposal *domain.Proposal) {
	if !proposal.HasEscrow() {
		return
	}
	if err := s.escrow.RefundEscrow(ctx, proposal.ID); err != nil {
		metrics.EscrowFailures.WithLabelValues("refund").Inc()
		log.WithError(err).Warnf(
			"failed to refund escrow of rejected proposal %s", proposal.ID,
		)
	}
}
