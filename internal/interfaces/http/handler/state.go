package httphandler

import "github.com/tdex-network/bookswap/internal/core/domain"

func stateView(state interface{}) interface{} {
	switch s := state.(type) {
	case *domain.Auction:
		if s == nil {
			return nil
		}
		return newAuctionView(s)
	case *domain.SwapOffer:
		if s == nil {
			return nil
		}
		return newSwapView(s)
	case *domain.Proposal:
		if s == nil {
			return nil
		}
		return newProposalView(s)
	default:
		return nil
	}
}
