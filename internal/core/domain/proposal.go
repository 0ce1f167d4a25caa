package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProposalType ...
type ProposalType string

const (
	ProposalTypeBooking ProposalType = "booking"
	ProposalTypeCash    ProposalType = "cash"
)

// ProposalStatus represents the different statuses that a proposal can assume.
type ProposalStatus string

const (
	ProposalStatusPending   ProposalStatus = "pending"
	ProposalStatusAccepted  ProposalStatus = "accepted"
	ProposalStatusRejected  ProposalStatus = "rejected"
	ProposalStatusWithdrawn ProposalStatus = "withdrawn"
)

// ProposalBody is either a BookingProposal or a CashProposal.
type ProposalBody interface {
	Type() ProposalType
	validate() error
}

// BookingProposal offers another booking in exchange.
type BookingProposal struct {
	BookingID string
}

func (BookingProposal) Type() ProposalType { return ProposalTypeBooking }

func (b BookingProposal) validate() error {
	if b.BookingID == "" {
		return ErrProposalMissingBooking
	}
	return nil
}

// CashProposal offers an amount of money, optionally held in escrow until the
// auction is resolved.
type CashProposal struct {
	Amount          decimal.Decimal
	Currency        string
	PaymentMethodID string
	EscrowAgreed    bool
}

func (CashProposal) Type() ProposalType { return ProposalTypeCash }

func (c CashProposal) validate() error {
	if !c.Amount.IsPositive() {
		return ErrProposalInvalidAmount
	}
	if c.Currency == "" {
		return ErrProposalMissingCurrency
	}
	if c.PaymentMethodID == "" {
		return ErrProposalMissingPaymentMethod
	}
	return nil
}

// Proposal is the data structure representing a bid on an auction.
type Proposal struct {
	ID             string
	AuctionID      string
	SwapID         string
	ProposerID     string
	Body           ProposalBody
	Message        string
	Conditions     []string
	Status         ProposalStatus
	Sequence       uint64
	IdempotencyKey string
	EscrowID       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewProposal returns a pending proposal with a new id, not yet sequenced.
func NewProposal(
	proposerID string, body ProposalBody, message string, conditions []string,
	idempotencyKey string, now time.Time,
) (*Proposal, error) {
	if body == nil {
		return nil, ErrProposalMissingBody
	}
	if err := body.validate(); err != nil {
		return nil, err
	}
	return &Proposal{
		ID:             uuid.New().String(),
		ProposerID:     proposerID,
		Body:           body,
		Message:        message,
		Conditions:     conditions,
		Status:         ProposalStatusPending,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Type ...
func (p *Proposal) Type() ProposalType {
	return p.Body.Type()
}

// IsPending ...
func (p *Proposal) IsPending() bool {
	return p.Status == ProposalStatusPending
}

// Booking returns the booking body and whether the proposal is of that type.
func (p *Proposal) Booking() (BookingProposal, bool) {
	b, ok := p.Body.(BookingProposal)
	return b, ok
}

// Cash returns the cash body and whether the proposal is of that type.
func (p *Proposal) Cash() (CashProposal, bool) {
	c, ok := p.Body.(CashProposal)
	return c, ok
}

// HasEscrow returns whether funds are held for this proposal.
func (p *Proposal) HasEscrow() bool {
	return p.EscrowID != ""
}

// Target returns the swap counterpart described by this proposal.
func (p *Proposal) Target() SwapTarget {
	t := SwapTarget{ProposalID: p.ID, ProposerID: p.ProposerID}
	switch body := p.Body.(type) {
	case BookingProposal:
		t.BookingID = body.BookingID
	case CashProposal:
		t.CashAmount = body.Amount
		t.Currency = body.Currency
	}
	return t
}

func (p *Proposal) setStatus(status ProposalStatus, now time.Time) {
	p.Status = status
	p.UpdatedAt = now
}

// Clone returns a deep copy of the proposal.
func (p *Proposal) Clone() *Proposal {
	clone := *p
	if p.Conditions != nil {
		clone.Conditions = append([]string(nil), p.Conditions...)
	}
	return &clone
}
