package domain

import (
	"sort"
	"time"
)

// ProposalLedger is the ordered collection of proposals of one auction.
// Proposals are never removed, only their status changes. Sequence numbers
// are assigned on append and define submission order.
type ProposalLedger struct {
	Proposals    []*Proposal
	LastSequence uint64
}

// Append adds the proposal to the ledger and assigns it the next sequence
// number. If the proposer already submitted a proposal with the same
// idempotency key, the existing one is returned and the bool is false.
// A booking proposal referencing a booking for which the same proposer has
// a pending proposal is rejected with ErrDuplicateProposal.
func (l *ProposalLedger) Append(p *Proposal) (*Proposal, bool, error) {
	if p.IdempotencyKey != "" {
		if existing := l.FindByIdempotencyKey(
			p.ProposerID, p.IdempotencyKey,
		); existing != nil {
			return existing, false, nil
		}
	}

	if booking, ok := p.Booking(); ok {
		for _, other := range l.Proposals {
			if !other.IsPending() || other.ProposerID != p.ProposerID {
				continue
			}
			if b, ok := other.Booking(); ok && b.BookingID == booking.BookingID {
				return nil, false, ErrDuplicateProposal
			}
		}
	}

	l.LastSequence++
	p.Sequence = l.LastSequence
	l.Proposals = append(l.Proposals, p)
	return p, true, nil
}

// Get ...
func (l *ProposalLedger) Get(proposalID string) (*Proposal, error) {
	for _, p := range l.Proposals {
		if p.ID == proposalID {
			return p, nil
		}
	}
	return nil, ErrProposalNotFound
}

// FindByIdempotencyKey ...
func (l *ProposalLedger) FindByIdempotencyKey(proposerID, key string) *Proposal {
	if key == "" {
		return nil
	}
	for _, p := range l.Proposals {
		if p.ProposerID == proposerID && p.IdempotencyKey == key {
			return p
		}
	}
	return nil
}

// Pending returns the pending proposals in submission order.
func (l *ProposalLedger) Pending() []*Proposal {
	pending := make([]*Proposal, 0, len(l.Proposals))
	for _, p := range l.Proposals {
		if p.IsPending() {
			pending = append(pending, p)
		}
	}
	return pending
}

// ByProposer returns the proposals submitted by the given user.
func (l *ProposalLedger) ByProposer(proposerID string) []*Proposal {
	list := make([]*Proposal, 0)
	for _, p := range l.Proposals {
		if p.ProposerID == proposerID {
			list = append(list, p)
		}
	}
	return list
}

// Rank returns all proposals ordered by type priority, cash amount descending
// and then submission order. Cash proposals come first when the auction
// allows them, booking proposals otherwise.
func (l *ProposalLedger) Rank(settings AuctionSettings) []*Proposal {
	return RankProposals(l.Proposals, settings)
}

// Resolve marks the winner as accepted and every other pending proposal as
// rejected. It returns the rejected ones.
func (l *ProposalLedger) Resolve(winnerID string, now time.Time) []*Proposal {
	rejected := make([]*Proposal, 0)
	for _, p := range l.Proposals {
		if !p.IsPending() {
			continue
		}
		if p.ID == winnerID {
			p.setStatus(ProposalStatusAccepted, now)
			continue
		}
		p.setStatus(ProposalStatusRejected, now)
		rejected = append(rejected, p)
	}
	return rejected
}

// RejectPending marks every pending proposal as rejected and returns them.
func (l *ProposalLedger) RejectPending(now time.Time) []*Proposal {
	return l.Resolve("", now)
}

// RankProposals sorts a copy of the given proposals, see ProposalLedger.Rank.
func RankProposals(proposals []*Proposal, settings AuctionSettings) []*Proposal {
	ranked := make([]*Proposal, len(proposals))
	copy(ranked, proposals)

	first := ProposalTypeBooking
	if settings.AllowCashProposals {
		first = ProposalTypeCash
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Type() != b.Type() {
			return a.Type() == first
		}
		ca, aok := a.Cash()
		cb, bok := b.Cash()
		if aok && bok && !ca.Amount.Equal(cb.Amount) {
			return ca.Amount.GreaterThan(cb.Amount)
		}
		return a.Sequence < b.Sequence
	})
	return ranked
}
