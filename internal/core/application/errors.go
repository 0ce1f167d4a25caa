package application

import (
	"errors"
	"fmt"

	"github.com/tdex-network/bookswap/internal/core/domain"
	"github.com/tdex-network/bookswap/internal/core/ports"
)

var (
	// ErrUnauthenticated is returned when the caller identity is unknown.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrSameSwap is returned when comparing a swap with itself.
	ErrSameSwap = errors.New("source and target swap must differ")
	// ErrMissingID ...
	ErrMissingID = errors.New("id must not be empty")
	// ErrBookingNotOwned is returned when a booking proposal references a
	// booking of somebody else.
	ErrBookingNotOwned = errors.New("booking does not belong to the proposer")
	// ErrNotSwapParty ...
	ErrNotSwapParty = errors.New("actor is neither the owner nor the proposer of the swap")
	// ErrWebhookManagerNotInitialized is returned when managing webhooks
	// without a webhook pubsub configured.
	ErrWebhookManagerNotInitialized = errors.New("webhook manager is not initialized")
)

// ErrorKind classifies failures so that transports can map them.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindIntegration
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindIntegration:
		return "integration"
	default:
		return "internal"
	}
}

// Error is returned by every application service. Conflict errors carry the
// current authoritative state in State.
type Error struct {
	Kind  ErrorKind
	Err   error
	State interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the given error, KindInternal for errors not
// produced by an application service.
func KindOf(err error) ErrorKind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// StateOf returns the state attached to the given error, if any.
func StateOf(err error) interface{} {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.State
	}
	return nil
}

func NewValidationError(err error) error {
	return &Error{Kind: KindValidation, Err: err}
}

func NewForbiddenError(err error) error {
	return &Error{Kind: KindForbidden, Err: err}
}

func NewNotFoundError(err error) error {
	return &Error{Kind: KindNotFound, Err: err}
}

func NewConflictError(err error, state interface{}) error {
	return &Error{Kind: KindConflict, Err: err, State: state}
}

func NewIntegrationError(err error) error {
	return &Error{Kind: KindIntegration, Err: err}
}

// WrapError classifies the given error. Domain errors are mapped to their
// kind, errors already classified are returned untouched and anything else
// is internal.
func WrapError(err error, state interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	var denied *domain.AccessDeniedError
	if errors.As(err, &denied) {
		return NewForbiddenError(err)
	}

	for _, e := range validationErrors {
		if errors.Is(err, e) {
			return NewValidationError(err)
		}
	}
	for _, e := range forbiddenErrors {
		if errors.Is(err, e) {
			return NewForbiddenError(err)
		}
	}
	for _, e := range notFoundErrors {
		if errors.Is(err, e) {
			return NewNotFoundError(err)
		}
	}
	for _, e := range conflictErrors {
		if errors.Is(err, e) {
			return NewConflictError(err, state)
		}
	}
	if errors.Is(err, ErrUnauthenticated) {
		return &Error{Kind: KindUnauthenticated, Err: err}
	}
	return &Error{Kind: KindInternal, Err: err}
}

var validationErrors = []error{
	ErrSameSwap,
	ErrMissingID,
	domain.ErrSwapMissingOwner,
	domain.ErrSwapMissingSourceBooking,
	domain.ErrSwapNegativeMinimumCash,
	domain.ErrSwapNoPaymentAllowed,
	domain.ErrAuctionEndDateInPast,
	domain.ErrAuctionNoProposalTypeAllowed,
	domain.ErrAuctionNegativeMinimumCash,
	domain.ErrAuctionNegativeAutoSelect,
	domain.ErrAuctionCashNotAcceptedBySwap,
	domain.ErrAuctionBookingNotAcceptedBySwap,
	domain.ErrProposalTypeNotAllowed,
	domain.ErrCashOfferBelowMinimum,
	domain.ErrProposalMissingBody,
	domain.ErrProposalMissingBooking,
	domain.ErrProposalInvalidAmount,
	domain.ErrProposalMissingCurrency,
	domain.ErrProposalMissingPaymentMethod,
	domain.ErrInvalidListing,
}

var forbiddenErrors = []error{
	ErrBookingNotOwned,
	ErrNotSwapParty,
	domain.ErrSwapNotOwner,
	domain.ErrNotAuctionOwner,
	domain.ErrOwnerCannotPropose,
	domain.ErrNotProposer,
}

var notFoundErrors = []error{
	domain.ErrSwapNotFound,
	domain.ErrAuctionNotFound,
	domain.ErrProposalNotFound,
	ports.ErrBookingNotFound,
}

var conflictErrors = []error{
	domain.ErrSwapNotOpen,
	domain.ErrSwapAlreadyInAuction,
	domain.ErrSwapTerminal,
	domain.ErrAuctionNotActive,
	domain.ErrAuctionAlreadyEnded,
	domain.ErrAuctionNotEnded,
	domain.ErrAuctionCancelled,
	domain.ErrDuplicateProposal,
	domain.ErrInvalidProposalState,
	domain.ErrWinnerAlreadySelected,
	domain.ErrSwapAlreadyExists,
	domain.ErrAuctionAlreadyExists,
}
