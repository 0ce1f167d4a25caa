package auction

import (
	"github.com/tdex-network/bookswap/internal/core/domain"
)

type RegisterSwapRequest struct {
	OwnerID         string
	SourceBookingID string
	Payment         domain.PaymentPreferences
	Listed          bool
}

type CreateAuctionRequest struct {
	SwapID   string
	ActorID  string
	Settings domain.AuctionSettings
}

type SubmitProposalRequest struct {
	AuctionID      string
	ProposerID     string
	Body           domain.ProposalBody
	Message        string
	Conditions     []string
	IdempotencyKey string
}

// ResolvedAuction reports what a timeout did to an auction.
type ResolvedAuction struct {
	AuctionID         string
	SwapID            string
	Outcome           domain.TimeoutOutcome
	WinningProposalID string
	AutoSelected      bool
}

// ProposalList is the list of proposals of an auction visible to a user,
// ranked like the winner selection would consider them.
type ProposalList struct {
	Auction   *domain.Auction
	Proposals []*domain.Proposal
}
