package compatibility

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/bookswap/internal/core/application"
	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/tdex-network/bookswap/internal/core/ports"
	"github.com/tdex-network/bookswap/pkg/metrics"
)

// Analysis is the result of comparing two swaps.
type Analysis struct {
	SourceSwapID string
	TargetSwapID string
	Result       *domain.CompatibilityResult
}

// Service lets a user evaluate two swaps before proposing. It is read only.
type Service struct {
	swaps    domain.SwapRepository
	bookings ports.BookingService
	scorer   domain.CompatibilityScorer
	guard    domain.SwapAccessGuard
}

func NewService(
	swapRepo domain.SwapRepository, bookingSvc ports.BookingService,
) (*Service, error) {
	if swapRepo == nil {
		return nil, fmt.Errorf("missing swap repository")
	}
	if bookingSvc == nil {
		return nil, fmt.Errorf("missing booking service")
	}
	return &Service{swaps: swapRepo, bookings: bookingSvc}, nil
}

// Analyze scores the source swap against the target one. The requester must
// be able to view both of them.
func (s *Service) Analyze(
	ctx context.Context, sourceSwapID, targetSwapID, userID string,
) (*Analysis, error) {
	if userID == "" {
		return nil, application.WrapError(application.ErrUnauthenticated, nil)
	}
	if sourceSwapID == "" || targetSwapID == "" {
		return nil, application.NewValidationError(application.ErrMissingID)
	}
	if sourceSwapID == targetSwapID {
		return nil, application.NewValidationError(application.ErrSameSwap)
	}

	source, err := s.swaps.GetSwap(ctx, sourceSwapID)
	if err != nil {
		return nil, application.WrapError(fmt.Errorf("source: %w", err), nil)
	}
	target, err := s.swaps.GetSwap(ctx, targetSwapID)
	if err != nil {
		return nil, application.WrapError(fmt.Errorf("target: %w", err), nil)
	}

	if err := s.guard.AuthorizeCompatibility(source, target, userID); err != nil {
		return nil, application.WrapError(err, nil)
	}

	sourceListing, err := s.listing(ctx, source)
	if err != nil {
		return nil, err
	}
	targetListing, err := s.listing(ctx, target)
	if err != nil {
		return nil, err
	}

	result, err := s.scorer.Score(*sourceListing, *targetListing)
	if err != nil {
		return nil, application.WrapError(err, nil)
	}

	metrics.CompatibilityScores.Observe(float64(result.OverallScore))
	log.Debugf(
		"compatibility of swaps %s and %s: %d (%s)",
		source.ID, target.ID, result.OverallScore, result.Tier,
	)
	return &Analysis{
		SourceSwapID: source.ID,
		TargetSwapID: target.ID,
		Result:       result,
	}, nil
}

func (s *Service) listing(
	ctx context.Context, swap *domain.SwapOffer,
) (*domain.ListingProfile, error) {
	booking, err := s.bookings.GetBooking(ctx, swap.SourceBookingID)
	if err != nil {
		if errors.Is(err, ports.ErrBookingNotFound) {
			return nil, application.NewIntegrationError(fmt.Errorf(
				"booking %s of swap %s is missing: %w",
				swap.SourceBookingID, swap.ID, err,
			))
		}
		return nil, application.NewIntegrationError(fmt.Errorf(
			"failed to look up booking of swap %s: %w", swap.ID, err,
		))
	}
	if booking == nil {
		return nil, application.NewIntegrationError(fmt.Errorf(
			"booking service returned no data for swap %s", swap.ID,
		))
	}
	listing := booking.Listing
	return &listing, nil
}
