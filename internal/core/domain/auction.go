package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuctionStatus represents the different statuses that an auction can assume.
type AuctionStatus string

const (
	AuctionStatusActive AuctionStatus = "active"
	AuctionStatusEnded  AuctionStatus = "ended"
)

// AuctionSettings are chosen by the owner when creating the auction.
type AuctionSettings struct {
	EndDate               time.Time
	AllowBookingProposals bool
	AllowCashProposals    bool
	MinimumCashOffer      decimal.Decimal
	AutoSelectAfterHours  int
}

// AutoSelectDeadline is the moment after which an ended auction without
// winner is resolved automatically.
func (s AuctionSettings) AutoSelectDeadline() time.Time {
	return s.EndDate.Add(time.Duration(s.AutoSelectAfterHours) * time.Hour)
}

// Allows returns whether proposals of the given type can be submitted.
func (s AuctionSettings) Allows(t ProposalType) bool {
	switch t {
	case ProposalTypeBooking:
		return s.AllowBookingProposals
	case ProposalTypeCash:
		return s.AllowCashProposals
	default:
		return false
	}
}

func (s AuctionSettings) validate(swap *SwapOffer, now time.Time) error {
	if !s.EndDate.After(now) {
		return ErrAuctionEndDateInPast
	}
	if !s.AllowBookingProposals && !s.AllowCashProposals {
		return ErrAuctionNoProposalTypeAllowed
	}
	if s.MinimumCashOffer.IsNegative() {
		return ErrAuctionNegativeMinimumCash
	}
	if s.AutoSelectAfterHours < 0 {
		return ErrAuctionNegativeAutoSelect
	}
	if s.AllowCashProposals && !swap.Payment.CashAllowed {
		return ErrAuctionCashNotAcceptedBySwap
	}
	if s.AllowBookingProposals && !swap.Payment.BookingExchangeAllowed {
		return ErrAuctionBookingNotAcceptedBySwap
	}
	return nil
}

// TimeoutOutcome tells what HandleTimeout did to an auction.
type TimeoutOutcome string

const (
	// TimeoutNoop means the auction was not due or already resolved.
	TimeoutNoop TimeoutOutcome = "noop"
	// TimeoutEnded means the auction ended and waits for the owner choice.
	TimeoutEnded TimeoutOutcome = "ended"
	// TimeoutAutoSelected means a winner was picked by the selection policy.
	TimeoutAutoSelected TimeoutOutcome = "auto_selected"
	// TimeoutUnresolved means the auction ended without any proposal to pick.
	TimeoutUnresolved TimeoutOutcome = "unresolved"
)

// Auction is the data structure representing the auction of a swap offer.
type Auction struct {
	ID                string
	SwapID            string
	OwnerID           string
	Status            AuctionStatus
	Settings          AuctionSettings
	Ledger            ProposalLedger
	WinningProposalID string
	AutoSelected      bool
	// Unresolved is set when the auction ended with no pending proposal.
	Unresolved bool
	Cancelled  bool
	// Settled is set once the swap and escrows reflect the auction outcome.
	Settled   bool
	EndedAt   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAuction returns an active auction for the given swap after validating
// the settings against the swap payment preferences. The swap is not
// modified, see SwapOffer.AttachAuction.
func NewAuction(
	swap *SwapOffer, actorID string, settings AuctionSettings, now time.Time,
) (*Auction, error) {
	if !swap.IsOwner(actorID) {
		return nil, ErrSwapNotOwner
	}
	if !swap.Status.IsOpen() {
		return nil, ErrSwapNotOpen
	}
	if swap.AuctionID != "" {
		return nil, ErrSwapAlreadyInAuction
	}
	if err := settings.validate(swap, now); err != nil {
		return nil, err
	}

	return &Auction{
		ID:        uuid.New().String(),
		SwapID:    swap.ID,
		OwnerID:   swap.OwnerID,
		Status:    AuctionStatusActive,
		Settings:  settings,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsOwner ...
func (a *Auction) IsOwner(userID string) bool {
	return userID != "" && a.OwnerID == userID
}

// IsOpen returns whether proposals can be submitted at the given time.
func (a *Auction) IsOpen(now time.Time) bool {
	return a.Status == AuctionStatusActive && now.Before(a.Settings.EndDate)
}

// IsEnded ...
func (a *Auction) IsEnded() bool {
	return a.Status == AuctionStatusEnded
}

// HasWinner ...
func (a *Auction) HasWinner() bool {
	return a.WinningProposalID != ""
}

// Winner returns the winning proposal, if any.
func (a *Auction) Winner() *Proposal {
	if !a.HasWinner() {
		return nil
	}
	p, _ := a.Ledger.Get(a.WinningProposalID)
	return p
}

// ValidateProposal checks that the proposal can be submitted to the auction
// without appending it.
func (a *Auction) ValidateProposal(p *Proposal, now time.Time) error {
	if a.IsOwner(p.ProposerID) {
		return ErrOwnerCannotPropose
	}
	if !a.IsOpen(now) {
		return ErrAuctionNotActive
	}
	if !a.Settings.Allows(p.Type()) {
		return ErrProposalTypeNotAllowed
	}
	if cash, ok := p.Cash(); ok {
		if cash.Amount.LessThan(a.Settings.MinimumCashOffer) {
			return ErrCashOfferBelowMinimum
		}
	}
	return nil
}

// SubmitProposal validates and appends the proposal to the ledger. A retry
// carrying an idempotency key already used by the proposer returns the
// stored proposal and false, regardless of the auction status.
func (a *Auction) SubmitProposal(p *Proposal, now time.Time) (*Proposal, bool, error) {
	if existing := a.Ledger.FindByIdempotencyKey(
		p.ProposerID, p.IdempotencyKey,
	); existing != nil {
		return existing, false, nil
	}
	if err := a.ValidateProposal(p, now); err != nil {
		return nil, false, err
	}

	p.AuctionID = a.ID
	p.SwapID = a.SwapID
	stored, added, err := a.Ledger.Append(p)
	if err != nil {
		return nil, false, err
	}
	if added {
		a.UpdatedAt = now
	}
	return stored, added, nil
}

// WithdrawProposal brings a pending proposal of the actor to the withdrawn
// status.
func (a *Auction) WithdrawProposal(
	actorID, proposalID string, now time.Time,
) (*Proposal, error) {
	p, err := a.Ledger.Get(proposalID)
	if err != nil {
		return nil, err
	}
	if p.ProposerID != actorID {
		return nil, ErrNotProposer
	}
	if p.Status == ProposalStatusWithdrawn {
		return p, nil
	}
	if !p.IsPending() {
		return nil, ErrInvalidProposalState
	}
	p.setStatus(ProposalStatusWithdrawn, now)
	a.UpdatedAt = now
	return p, nil
}

// End brings an active auction to the ended status without a winner.
func (a *Auction) End(actorID string, now time.Time) error {
	if !a.IsOwner(actorID) {
		return ErrNotAuctionOwner
	}
	if a.IsEnded() {
		return ErrAuctionAlreadyEnded
	}
	a.end(now)
	return nil
}

// SelectWinner assigns the winning proposal of an ended auction on behalf of
// the owner. Selecting the current winner again is a no-op and returns false.
// Selecting another proposal once a winner exists fails with
// ErrWinnerAlreadySelected.
func (a *Auction) SelectWinner(actorID, proposalID string, now time.Time) (bool, error) {
	if !a.IsOwner(actorID) {
		return false, ErrNotAuctionOwner
	}
	if a.HasWinner() {
		if a.WinningProposalID == proposalID {
			return false, nil
		}
		return false, ErrWinnerAlreadySelected
	}
	if a.Cancelled {
		return false, ErrAuctionCancelled
	}
	if !a.IsEnded() {
		return false, ErrAuctionNotEnded
	}

	p, err := a.Ledger.Get(proposalID)
	if err != nil {
		return false, err
	}
	if !p.IsPending() {
		return false, ErrInvalidProposalState
	}

	a.assignWinner(p, now)
	return true, nil
}

// HandleTimeout resolves the auction according to the wall clock. It ends an
// active auction whose end date passed. Once the auto selection delay
// elapsed too, the policy picks the winner. An auction without pending
// proposals is marked unresolved. Calling it early or on an already resolved
// auction is a no-op.
func (a *Auction) HandleTimeout(
	now time.Time, policy WinnerSelectionPolicy,
) TimeoutOutcome {
	if a.Cancelled || a.HasWinner() || a.Unresolved {
		return TimeoutNoop
	}

	outcome := TimeoutNoop
	if !a.IsEnded() {
		if now.Before(a.Settings.EndDate) {
			return TimeoutNoop
		}
		a.end(now)
		outcome = TimeoutEnded
	}

	pending := a.Ledger.Pending()
	if len(pending) == 0 {
		a.Unresolved = true
		a.UpdatedAt = now
		return TimeoutUnresolved
	}

	if now.Before(a.Settings.AutoSelectDeadline()) {
		return outcome
	}

	winner := policy.SelectAutomatic(pending, a.Settings)
	if winner == nil {
		a.Unresolved = true
		a.UpdatedAt = now
		return TimeoutUnresolved
	}
	a.assignWinner(winner, now)
	a.AutoSelected = true
	return TimeoutAutoSelected
}

// Cancel ends the auction without a winner and rejects pending proposals.
// It fails if a winner was already selected.
func (a *Auction) Cancel(now time.Time) (bool, error) {
	if a.HasWinner() {
		return false, ErrWinnerAlreadySelected
	}
	if a.Cancelled {
		return false, nil
	}
	if !a.IsEnded() {
		a.end(now)
	}
	a.Ledger.RejectPending(now)
	a.Cancelled = true
	a.Settled = false
	a.UpdatedAt = now
	return true, nil
}

// NeedsResolution returns whether HandleTimeout would change the auction.
func (a *Auction) NeedsResolution(now time.Time) bool {
	if a.Cancelled || a.HasWinner() || a.Unresolved {
		return false
	}
	if !a.IsEnded() {
		return !now.Before(a.Settings.EndDate)
	}
	return len(a.Ledger.Pending()) == 0 ||
		!now.Before(a.Settings.AutoSelectDeadline())
}

// NeedsSettlement returns whether the auction reached an outcome that is not
// yet reflected on the swap and the escrows.
func (a *Auction) NeedsSettlement() bool {
	return !a.Settled && (a.HasWinner() || a.Cancelled || a.Unresolved)
}

// MarkSettled records that the outcome was applied to the swap and escrows.
func (a *Auction) MarkSettled(now time.Time) {
	a.Settled = true
	a.UpdatedAt = now
}

func (a *Auction) end(now time.Time) {
	a.Status = AuctionStatusEnded
	a.EndedAt = now
	a.UpdatedAt = now
}

func (a *Auction) assignWinner(p *Proposal, now time.Time) {
	a.WinningProposalID = p.ID
	a.Ledger.Resolve(p.ID, now)
	a.Settled = false
	a.UpdatedAt = now
}

// Clone returns a deep copy of the auction.
func (a *Auction) Clone() *Auction {
	clone := *a
	clone.Ledger.Proposals = make([]*Proposal, 0, len(a.Ledger.Proposals))
	for _, p := range a.Ledger.Proposals {
		clone.Ledger.Proposals = append(clone.Ledger.Proposals, p.Clone())
	}
	return &clone
}
