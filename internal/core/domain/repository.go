package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSwapNotFound ...
	ErrSwapNotFound = errors.New("swap not found")
	// ErrAuctionNotFound ...
	ErrAuctionNotFound = errors.New("auction not found")
	// ErrSwapAlreadyExists ...
	ErrSwapAlreadyExists = errors.New("swap already exists")
	// ErrAuctionAlreadyExists ...
	ErrAuctionAlreadyExists = errors.New("auction already exists")
)

// SwapRepository is the abstraction for any kind of database intended to
// persist SwapOffers.
type SwapRepository interface {
	// AddSwap stores a new swap offer.
	AddSwap(ctx context.Context, swap *SwapOffer) error
	// GetSwap returns the swap with the given id or ErrSwapNotFound.
	GetSwap(ctx context.Context, swapID string) (*SwapOffer, error)
	// UpdateSwap allows to commit multiple changes to the same swap in a
	// transactional way.
	UpdateSwap(
		ctx context.Context,
		swapID string,
		updateFn func(s *SwapOffer) (*SwapOffer, error),
	) error
}

// AuctionRepository is the abstraction for any kind of database intended to
// persist Auctions together with their proposals.
type AuctionRepository interface {
	// AddAuction stores a new auction.
	AddAuction(ctx context.Context, auction *Auction) error
	// GetAuction returns the auction with the given id or ErrAuctionNotFound.
	GetAuction(ctx context.Context, auctionID string) (*Auction, error)
	// GetAllAuctions returns the auctions sorted by creation time, optionally
	// paginated.
	GetAllAuctions(ctx context.Context, page *Page) ([]*Auction, error)
	// GetAuctionsToResolve returns the auctions that either need to be
	// resolved at the given time or whose outcome is not settled yet.
	GetAuctionsToResolve(ctx context.Context, now time.Time) ([]*Auction, error)
	// UpdateAuction commits the changes made by updateFn atomically.
	// Concurrent updates of the same auction are serialized, so that
	// sequence numbers and winner assignment never race.
	UpdateAuction(
		ctx context.Context,
		auctionID string,
		updateFn func(a *Auction) (*Auction, error),
	) error
}
