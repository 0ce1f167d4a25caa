package domain

// WinnerSelectionPolicy picks the winner of an auction resolved by timeout.
// A nil result leaves the auction unresolved.
type WinnerSelectionPolicy interface {
	SelectAutomatic(proposals []*Proposal, settings AuctionSettings) *Proposal
}

// CashFirstPolicy considers only cash proposals whenever the auction allows
// them and at least one is pending, picking the highest amount and the
// earliest one among equals. Otherwise it picks the earliest booking proposal.
type CashFirstPolicy struct{}

// SelectAutomatic ...
func (CashFirstPolicy) SelectAutomatic(
	proposals []*Proposal, settings AuctionSettings,
) *Proposal {
	var bestCash, firstBooking *Proposal
	for _, p := range proposals {
		if !p.IsPending() {
			continue
		}
		switch body := p.Body.(type) {
		case CashProposal:
			if !settings.AllowCashProposals {
				continue
			}
			if bestCash == nil {
				bestCash = p
				continue
			}
			best, _ := bestCash.Cash()
			if body.Amount.GreaterThan(best.Amount) ||
				(body.Amount.Equal(best.Amount) && p.Sequence < bestCash.Sequence) {
				bestCash = p
			}
		case BookingProposal:
			if firstBooking == nil || p.Sequence < firstBooking.Sequence {
				firstBooking = p
			}
		}
	}

	if bestCash != nil {
		return bestCash
	}
	return firstBooking
}
