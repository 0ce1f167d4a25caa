package pubsub

import (
	"time"

	"github.com/tdex-network/bookswap/internal/core/domain"
)

func getAuctionPayload(auction domain.Auction) map[string]interface{} {
	payload := map[string]interface{}{
		"id":                  auction.ID,
		"swap_id":             auction.SwapID,
		"owner_id":            auction.OwnerID,
		"status":              auction.Status,
		"end_date":            auction.Settings.EndDate.Format(time.RFC3339),
		"proposals":           len(auction.Ledger.Proposals),
		"winning_proposal_id": auction.WinningProposalID,
		"auto_selected":       auction.AutoSelected,
		"cancelled":           auction.Cancelled,
	}
	if !auction.EndedAt.IsZero() {
		payload["ended_at"] = auction.EndedAt.Format(time.RFC3339)
	}
	return payload
}

func getProposalPayload(proposal domain.Proposal) map[string]interface{} {
	payload := map[string]interface{}{
		"id":          proposal.ID,
		"proposer_id": proposal.ProposerID,
		"type":        proposal.Type(),
		"status":      proposal.Status,
		"sequence":    proposal.Sequence,
	}
	switch body := proposal.Body.(type) {
	case domain.BookingProposal:
		payload["booking_id"] = body.BookingID
	case domain.CashProposal:
		payload["amount"] = body.Amount.String()
		payload["currency"] = body.Currency
		payload["escrow"] = proposal.HasEscrow()
	}
	return payload
}

func getSwapPayload(swap domain.SwapOffer) map[string]interface{} {
	return map[string]interface{}{
		"id":                  swap.ID,
		"owner_id":            swap.OwnerID,
		"status":              swap.Status,
		"acceptance_strategy": swap.AcceptanceStrategy,
		"auction_id":          swap.AuctionID,
	}
}
